package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/render"
)

// Manifest is the finite feed payload handed to the messaging
// collaborator. The core never pushes it anywhere itself.
type Manifest struct {
	SummaryCounts SummaryCounts             `json:"summary_counts"`
	LaneOccupancy map[string]map[string]int `json:"lane_occupancy"`
	// ContentHash is the hex sha256 over every rendered artifact, in
	// adapter order, so consumers can detect an unchanged snapshot.
	ContentHash string `json:"content_hash"`
	// SourceRev is the VCS revision the artifacts were generated from,
	// when the planning directory lives in a repository.
	SourceRev string `json:"source_rev,omitempty"`
	// Generation mirrors the active schedule's generation counter.
	Generation int `json:"generation"`
}

// SummaryCounts aggregates record counts by status and partition.
type SummaryCounts struct {
	Milestones         map[string]int `json:"milestones"`
	Tasks              map[string]int `json:"tasks"`
	ActiveMilestones   int            `json:"active_milestones"`
	ArchivedMilestones int            `json:"archived_milestones"`
	ActiveTasks        int            `json:"active_tasks"`
	ArchivedTasks      int            `json:"archived_tasks"`
}

// BuildManifest assembles the feed payload from the snapshot, the board
// tree, and the already-rendered artifact bytes.
func BuildManifest(snap *ledger.Snapshot, board *render.BoardTree, sourceRev string, artifacts ...[]byte) *Manifest {
	m := &Manifest{
		SummaryCounts: summarize(snap),
		LaneOccupancy: occupancy(board),
		ContentHash:   ContentHash(artifacts...),
		SourceRev:     sourceRev,
		Generation:    snap.ActiveMilestones.Generation,
	}
	return m
}

// EncodeManifest renders the manifest as indented JSON with a trailing
// newline. Go's map marshaling sorts keys, so the payload is
// byte-deterministic.
func EncodeManifest(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// ContentHash is the hex sha256 over the concatenated artifacts.
func ContentHash(artifacts ...[]byte) string {
	h := sha256.New()
	for _, a := range artifacts {
		h.Write(a)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func summarize(snap *ledger.Snapshot) SummaryCounts {
	counts := SummaryCounts{
		Milestones:         make(map[string]int),
		Tasks:              make(map[string]int),
		ActiveMilestones:   len(snap.ActiveMilestones.Milestones),
		ArchivedMilestones: len(snap.ArchivedMilestones.Milestones),
		ActiveTasks:        len(snap.ActiveTasks.Tasks),
		ArchivedTasks:      len(snap.ArchivedTasks.Tasks),
	}
	for _, m := range snap.ActiveMilestones.Milestones {
		counts.Milestones[string(m.Status)]++
	}
	for _, t := range snap.ActiveTasks.Tasks {
		counts.Tasks[string(t.Status)]++
	}
	return counts
}

func occupancy(board *render.BoardTree) map[string]map[string]int {
	out := make(map[string]map[string]int, len(board.Lanes))
	for _, lane := range board.Lanes {
		cols := make(map[string]int)
		for col, cards := range lane.Cells {
			if len(cards) > 0 {
				cols[string(col)] = len(cards)
			}
		}
		out[lane.ID] = cols
	}
	return out
}
