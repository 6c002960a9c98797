// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"encoding/json"
	"fmt"

	"github.com/offchainlabs/rollups-consensus/util/fsm"
)

type Phase uint8

const (
	InputAccumulation Phase = iota
	AwaitingConsensus
	AwaitingDispute
)

func (p Phase) String() string {
	switch p {
	case InputAccumulation:
		return "InputAccumulation"
	case AwaitingConsensus:
		return "AwaitingConsensus"
	case AwaitingDispute:
		return "AwaitingDispute"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

func (p Phase) Valid() bool {
	return p <= AwaitingDispute
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, candidate := range []Phase{InputAccumulation, AwaitingConsensus, AwaitingDispute} {
		if candidate.String() == name {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", name)
}

type phaseTransition string

func (t phaseTransition) String() string { return string(t) }

const (
	sealInputs     phaseTransition = "sealInputs"
	finalizeEpoch  phaseTransition = "finalizeEpoch"
	raiseDispute   phaseTransition = "raiseDispute"
	resolveDispute phaseTransition = "resolveDispute"
)

var phaseTransitions = []*fsm.Event[phaseTransition, Phase]{
	{
		Typ:  sealInputs,
		From: []Phase{InputAccumulation},
		To:   AwaitingConsensus,
	},
	{
		Typ:  finalizeEpoch,
		From: []Phase{AwaitingConsensus},
		To:   InputAccumulation,
	},
	{
		Typ:  raiseDispute,
		From: []Phase{AwaitingConsensus},
		To:   AwaitingDispute,
	},
	{
		Typ:  resolveDispute,
		From: []Phase{AwaitingDispute},
		To:   InputAccumulation,
	},
}

func newPhaseMachine(start Phase) (*fsm.Fsm[phaseTransition, Phase], error) {
	return fsm.New(start, phaseTransitions)
}
