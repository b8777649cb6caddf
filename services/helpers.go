package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/fightclub-brackets/brackets"
	"github.com/Dosada05/fightclub-brackets/repositories"
)

// mapRepositoryError translates repository sentinels into service ones so
// handlers only need to know this package.
func mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrCompetitionNotFound):
		return ErrCompetitionNotFound
	case errors.Is(err, repositories.ErrBracketNotFound):
		return ErrBracketNotFound
	case errors.Is(err, repositories.ErrFighterNotFound):
		return ErrFighterNotFound
	case errors.Is(err, repositories.ErrBracketDivisionConflict):
		return ErrBracketConflict
	case errors.Is(err, repositories.ErrBracketCompetitionFK):
		return ErrCompetitionNotFound
	case errors.Is(err, repositories.ErrRegistrationFighterUnknown):
		return fmt.Errorf("%w: %v", ErrFighterNotFound, err)
	}
	return err
}

// notify pushes an event to the competition room. A nil notifier drops it.
func notify(n Notifier, competitionID int, event string, payload interface{}) {
	if n == nil {
		return
	}
	room := brackets.CompetitionRoom(competitionID)
	n.BroadcastToRoom(room, brackets.WebSocketMessage{Type: event, Payload: payload, RoomID: room})
}
