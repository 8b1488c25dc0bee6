package core

import (
	"time"

	"github.com/google/uuid"
)

// Address is an opaque ledger identifier. The empty value means unset.
type Address string

func (a Address) IsSet() bool {
	return a != ""
}

func (a Address) String() string {
	return string(a)
}

// State is the record of one wizard session.
type State struct {
	SessionID     string                `json:"session_id" yaml:"session_id"`
	CurrentStep   StepType              `json:"current_step" yaml:"current_step"`
	MintAddress   Address               `json:"mint_address,omitempty" yaml:"mint_address,omitempty"`
	MarketID      Address               `json:"market_id,omitempty" yaml:"market_id,omitempty"`
	LPMintAddress Address               `json:"lp_mint_address,omitempty" yaml:"lp_mint_address,omitempty"`
	MetadataURI   string                `json:"metadata_uri,omitempty" yaml:"metadata_uri,omitempty"`
	MintRevoked   bool                  `json:"mint_revoked" yaml:"mint_revoked"`
	FreezeRevoked bool                  `json:"freeze_revoked" yaml:"freeze_revoked"`
	LPBurned      bool                  `json:"lp_burned" yaml:"lp_burned"`
	Signatures    map[StepType][]string `json:"signatures,omitempty" yaml:"signatures,omitempty"`
	Form          FormInputs            `json:"form" yaml:"form"`
	Busy          bool                  `json:"busy" yaml:"busy"`
	LastError     string                `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	Completed     bool                  `json:"completed" yaml:"completed"`
	UpdatedAt     time.Time             `json:"updated_at" yaml:"updated_at"`
}

// NewState returns a fresh session at CollectTokenInfo.
func NewState(form FormInputs) *State {
	return &State{
		SessionID:   uuid.NewString(),
		CurrentStep: CollectTokenInfo,
		Signatures:  make(map[StepType][]string),
		Form:        form,
		UpdatedAt:   time.Now().UTC(),
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := *s
	c.Signatures = make(map[StepType][]string, len(s.Signatures))
	for step, sigs := range s.Signatures {
		c.Signatures[step] = append([]string(nil), sigs...)
	}
	if s.Form.Logo != nil {
		c.Form.Logo = append([]byte(nil), s.Form.Logo...)
	}
	return &c
}

// Artifact returns the identifier step produces, if any.
func (s *State) Artifact(step StepType) Address {
	switch step {
	case CollectTokenInfo:
		return s.MintAddress
	case CreateMarket:
		return s.MarketID
	case AddLiquidity:
		return s.LPMintAddress
	}
	return ""
}

// Done reports whether step's effect has already been captured.
func (s *State) Done(step StepType) bool {
	switch step {
	case RevokeMint:
		return s.MintRevoked
	case RevokeFreeze:
		return s.FreezeRevoked
	case BurnLp:
		return s.LPBurned
	}
	return s.Artifact(step).IsSet()
}
