package coordinator

import (
	"context"
	"fmt"

	"agora/pkg/protocol"
)

// roleWeights orders agent roles for conflict priority. Unlisted roles get
// weight 1.
var roleWeights = map[string]float64{
	"architect":   5,
	"coordinator": 4,
	"implementer": 3,
	"coder":       3,
	"tester":      2,
	"reviewer":    2,
}

// priority computes an agent's conflict priority: declared role weight plus
// an inverse-pipeline-stage weight, so earlier-stage agents get slight
// priority. Deterministic, no randomness.
func priority(reg protocol.Registration) float64 {
	w, ok := roleWeights[reg.Profile.Role]
	if !ok {
		w = 1
	}

	stage := earliestStep(reg.Profile)
	// Stage 1 contributes 1.0, stage 10 contributes 0.1; no declared
	// stage contributes nothing.
	var stageWeight float64
	if stage > 0 {
		stageWeight = 1.0 / float64(stage)
	}
	return w + stageWeight
}

func earliestStep(p protocol.Profile) int {
	min := 0
	for _, s := range p.StepAffinities {
		if s > 0 && (min == 0 || s < min) {
			min = s
		}
	}
	return min
}

// ResolveConflict decides which of two agents contending for a resource
// proceeds. The higher-priority agent wins; the loser is notified it must
// wait. A priority tie falls back to agent ID order so the outcome is always
// deterministic and auditable.
func (c *Coordinator) ResolveConflict(ctx context.Context, a, b protocol.Registration, resource string) (winner string, err error) {
	pa, pb := priority(a), priority(b)

	winner, loser := a.AgentID, b.AgentID
	switch {
	case pa > pb:
	case pb > pa:
		winner, loser = b.AgentID, a.AgentID
	case a.AgentID > b.AgentID:
		winner, loser = b.AgentID, a.AgentID
	}

	body := fmt.Sprintf("resource %s granted to %s (priority %.2f vs %.2f); %s must wait",
		resource, winner, max(pa, pb), min(pa, pb), loser)
	_, err = c.store.Append(ctx, protocol.RoomCoordination, body, protocol.MessageContext{
		Target: loser,
		Kind:   protocol.KindConflictLost,
	})
	if err != nil {
		return "", fmt.Errorf("notify conflict loser %s: %w", loser, err)
	}
	return winner, nil
}
