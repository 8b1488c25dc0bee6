package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/santiagomed/launchpad/remote"
)

func TestStepType(t *testing.T) {
	assert.Equal(t, RevokeMint, CollectTokenInfo.Next())
	assert.Equal(t, BurnLp, BurnLp.Next())
	assert.Equal(t, CollectTokenInfo, CollectTokenInfo.Prev())
	assert.Equal(t, RevokeFreeze, CreateMarket.Prev())
	assert.Equal(t, remote.BurnToken, BurnLp.Operation())
	assert.Equal(t, "Create Market", CreateMarket.Title())
	assert.Equal(t, "StepType(9)", StepType(9).String())

	step, err := ParseStep("addliquidity")
	require.NoError(t, err)
	assert.Equal(t, AddLiquidity, step)
	_, err = ParseStep("Done")
	assert.Error(t, err)
}

func TestStateClone(t *testing.T) {
	s := stateAt(AddLiquidity)
	s.Signatures[CollectTokenInfo] = []string{"sig"}

	c := s.Clone()
	assert.Empty(t, cmp.Diff(s, c))

	c.Signatures[CollectTokenInfo][0] = "changed"
	c.Form.Logo[0] = 0
	c.MintAddress = "Other"
	assert.Equal(t, "sig", s.Signatures[CollectTokenInfo][0])
	assert.Equal(t, validPNG[0], s.Form.Logo[0])
	assert.Equal(t, Address("Mint1111"), s.MintAddress)
}

func TestStateEncoding(t *testing.T) {
	s := stateAt(BurnLp)
	s.Signatures[CreateMarket] = []string{"a", "b"}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"current_step":"BurnLp"`)
	assert.Contains(t, string(data), `"CreateMarket":["a","b"]`)
	assert.NotContains(t, string(data), "logo\":")

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	want := s.Clone()
	want.Form.Logo = nil
	assert.Empty(t, cmp.Diff(want, &decoded))

	out, err := yaml.Marshal(s)
	require.NoError(t, err)
	var fromYAML State
	require.NoError(t, yaml.Unmarshal(out, &fromYAML))
	assert.Equal(t, BurnLp, fromYAML.CurrentStep)
	assert.Equal(t, []string{"a", "b"}, fromYAML.Signatures[CreateMarket])
}

func TestStateDone(t *testing.T) {
	s := stateAt(BurnLp)
	assert.True(t, s.Done(CollectTokenInfo))
	assert.True(t, s.Done(RevokeFreeze))
	assert.True(t, s.Done(AddLiquidity))
	assert.False(t, s.Done(BurnLp))
	assert.Equal(t, Address("Market1111"), s.Artifact(CreateMarket))
	assert.Equal(t, Address(""), s.Artifact(RevokeMint))
}

func TestFormInputsValidate(t *testing.T) {
	require.NoError(t, validForm().Validate())

	cases := map[string]func(*FormInputs){
		"name":     func(f *FormInputs) { f.Name = " " },
		"symbol":   func(f *FormInputs) { f.Symbol = "" },
		"logo":     func(f *FormInputs) { f.Logo = nil },
		"decimals": func(f *FormInputs) { f.Decimals = 10 },
		"quantity": func(f *FormInputs) { f.Quantity = 0 },
		"too large": func(f *FormInputs) {
			f.Quantity = math.MaxUint64 / 100
		},
	}
	for name, mutate := range cases {
		f := validForm()
		mutate(&f)
		assert.Error(t, f.Validate(), name)
	}
}

func TestSolAmount(t *testing.T) {
	v, err := ParseSolAmount(" 1.25 ")
	require.NoError(t, err)
	assert.Equal(t, 1.25, v)

	lamports, err := Lamports(v)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_250_000_000), lamports)

	_, err = Lamports(1e-12)
	assert.Error(t, err)
	_, err = Lamports(1e12)
	assert.Error(t, err)
}
