package core

import (
	"fmt"
	"strings"

	"github.com/santiagomed/launchpad/remote"
)

type StepType int

const (
	CollectTokenInfo StepType = iota
	RevokeMint
	RevokeFreeze
	CreateMarket
	AddLiquidity
	BurnLp
)

var stepNames = [...]string{
	CollectTokenInfo: "CollectTokenInfo",
	RevokeMint:       "RevokeMint",
	RevokeFreeze:     "RevokeFreeze",
	CreateMarket:     "CreateMarket",
	AddLiquidity:     "AddLiquidity",
	BurnLp:           "BurnLp",
}

var stepTitles = [...]string{
	CollectTokenInfo: "Create Token",
	RevokeMint:       "Revoke Mint",
	RevokeFreeze:     "Revoke Freeze",
	CreateMarket:     "Create Market",
	AddLiquidity:     "Add Liquidity",
	BurnLp:           "Burn",
}

var stepOperations = [...]remote.OperationKind{
	CollectTokenInfo: remote.CreateToken,
	RevokeMint:       remote.RevokeMintAuthority,
	RevokeFreeze:     remote.RevokeFreezeAuthority,
	CreateMarket:     remote.CreateMarket,
	AddLiquidity:     remote.AddLiquidity,
	BurnLp:           remote.BurnToken,
}

// Steps returns the pipeline in execution order.
func Steps() []StepType {
	return []StepType{CollectTokenInfo, RevokeMint, RevokeFreeze, CreateMarket, AddLiquidity, BurnLp}
}

func (s StepType) Valid() bool {
	return s >= CollectTokenInfo && s <= BurnLp
}

func (s StepType) String() string {
	if !s.Valid() {
		return fmt.Sprintf("StepType(%d)", int(s))
	}
	return stepNames[s]
}

// Title is the label shown in the wizard.
func (s StepType) Title() string {
	if !s.Valid() {
		return s.String()
	}
	return stepTitles[s]
}

// Next returns the step after s. BurnLp is its own successor.
func (s StepType) Next() StepType {
	if s >= BurnLp {
		return BurnLp
	}
	return s + 1
}

// Prev returns the step before s. CollectTokenInfo is its own predecessor.
func (s StepType) Prev() StepType {
	if s <= CollectTokenInfo {
		return CollectTokenInfo
	}
	return s - 1
}

// Operation is the remote operation the step runs.
func (s StepType) Operation() remote.OperationKind {
	return stepOperations[s]
}

// Cancellable reports whether the wizard may step back from s.
func (s StepType) Cancellable() bool {
	return s == RevokeMint || s == RevokeFreeze || s == CreateMarket
}

func (s StepType) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid step %d", int(s))
	}
	return []byte(stepNames[s]), nil
}

func (s *StepType) UnmarshalText(text []byte) error {
	step, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = step
	return nil
}

func ParseStep(name string) (StepType, error) {
	for i, n := range stepNames {
		if strings.EqualFold(n, name) {
			return StepType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", name)
}
