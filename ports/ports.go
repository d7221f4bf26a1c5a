// Package ports defines the interfaces between the detection engine and its
// external collaborators.
package ports

import (
	"context"

	"oppsight/domain/core"
	"oppsight/domain/game"
)

// BattleHistory is the historical-data collaborator. It owns persistence and
// querying of battle logs; the engine only requires stable opponent
// identities and strictly increasing turn order. Implementations must not
// mutate a sequence once handed to an analysis.
type BattleHistory interface {
	// ListOpponents returns every opponent with at least minTurns recorded.
	ListOpponents(ctx context.Context, minTurns int) ([]core.OpponentID, error)
	// SequenceFor fetches one opponent's ordered turn history.
	SequenceFor(ctx context.Context, id core.OpponentID) (*game.Sequence, error)
}

// BattleRecorder ingests new turns as matches are played.
type BattleRecorder interface {
	// RecordTurn appends one turn to an opponent's log. Turn indices must be
	// unique per opponent.
	RecordTurn(ctx context.Context, id core.OpponentID, turn game.Turn) error
}

// BattleStore is a full read/write battle log.
type BattleStore interface {
	BattleHistory
	BattleRecorder
}
