package cli

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santiagomed/launchpad/config"
	"github.com/santiagomed/launchpad/core"
	"github.com/santiagomed/launchpad/fs"
	"github.com/santiagomed/launchpad/logger"
	"github.com/santiagomed/launchpad/price"
	"github.com/santiagomed/launchpad/remote"
	"github.com/santiagomed/launchpad/wallet"
)

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	back  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'b'}}
	retry = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}
)

type adapterFunc func(ctx context.Context, kind remote.OperationKind, args remote.Args) (remote.Artifact, error)

func (f adapterFunc) Execute(ctx context.Context, kind remote.OperationKind, args remote.Args) (remote.Artifact, error) {
	return f(ctx, kind, args)
}

// newDryRunWizard wires a wizard to the in-memory ledger the way
// `launchpad wizard --dry-run` does.
func newDryRunWizard(t *testing.T) (wizardModel, *fs.FileSystem) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Network.Mode = config.ModeDryRun
	cfg.Metadata.Store = config.StoreLocal
	cfg.Metadata.LocalDir = "/metadata"
	cfg.Metadata.Describe = false
	cfg.Journal.Enabled = false

	fsys := fs.NewMemoryFileSystem()
	l := logger.NewNullLogger()
	rt, err := newRuntime(context.Background(), cfg, fsys, l)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	state, err := rt.session(context.Background(), "", core.DefaultFormInputs())
	require.NoError(t, err)

	pub := NewCliStepPublisher(l)
	m := newWizardModel(context.Background(), wizardOptions{
		pipeline:  core.NewPipeline(state, rt.executor(), pub, rt.recorder(), l),
		publisher: pub,
		fs:        fsys,
		quote:     price.Quote{USD: 100},
		dryRun:    true,
		logger:    l,
	})
	return m, fsys
}

func press(m wizardModel, key tea.KeyMsg) (wizardModel, tea.Cmd) {
	model, cmd := m.Update(key)
	return model.(wizardModel), cmd
}

// settle runs the step started by cmd and feeds its outcome back.
func settle(t *testing.T, m wizardModel, cmd tea.Cmd) wizardModel {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok, "expected a batch with the running step")
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(outcomeMsg); ok {
			model, _ := m.Update(msg)
			return model.(wizardModel)
		}
	}
	t.Fatal("no step outcome in command")
	return m
}

func createToken(t *testing.T, m wizardModel, fsys *fs.FileSystem) wizardModel {
	t.Helper()
	require.NoError(t, fsys.WriteFile("/art/moon.png", pngHeader))
	m.inputs[fieldName].SetValue("Moon")
	m.inputs[fieldSymbol].SetValue("MOON")
	m.inputs[fieldLogo].SetValue("/art/moon.png")
	m.inputs[fieldQuantity].SetValue("1,000,000")

	for i := 0; i < len(formFields)-1; i++ {
		m, _ = press(m, enter)
	}
	require.Equal(t, fieldDescription, m.focus)

	m, cmd := press(m, enter)
	require.Equal(t, Running, m.phase)
	return settle(t, m, cmd)
}

func TestWizardDryRun(t *testing.T) {
	m, fsys := newDryRunWizard(t)
	assert.Equal(t, Editing, m.phase)
	assert.Contains(t, m.View(), "dry run")

	m = createToken(t, m, fsys)
	require.True(t, m.state.MintAddress.IsSet(), m.state.LastError)
	assert.Contains(t, m.state.MetadataURI, "file://")
	assert.Equal(t, core.RevokeMint, m.state.CurrentStep)
	assert.Equal(t, Confirming, m.phase)
	assert.Equal(t, uint64(1_000_000), m.state.Form.Quantity)

	var cmd tea.Cmd
	for _, want := range []core.StepType{core.RevokeFreeze, core.CreateMarket, core.AddLiquidity} {
		m, cmd = press(m, enter)
		m = settle(t, m, cmd)
		require.Equal(t, want, m.state.CurrentStep, m.state.LastError)
	}
	market := m.state.MarketID
	assert.True(t, market.IsSet())
	assert.True(t, m.state.MintRevoked)
	assert.True(t, m.state.FreezeRevoked)
	assert.Equal(t, Editing, m.phase)
	assert.Contains(t, m.View(), "1,000,000 MOON")

	m.solInput.SetValue("lots")
	m, cmd = press(m, enter)
	m = settle(t, m, cmd)
	assert.Equal(t, Editing, m.phase)
	assert.Equal(t, core.AddLiquidity, m.state.CurrentStep)
	assert.Contains(t, m.state.LastError, "not a number")

	m.solInput.SetValue("5")
	assert.Contains(t, m.View(), "≈ $500")
	m, cmd = press(m, enter)
	m = settle(t, m, cmd)
	require.Equal(t, core.BurnLp, m.state.CurrentStep, m.state.LastError)
	assert.True(t, m.state.LPMintAddress.IsSet())

	m, cmd = press(m, enter)
	m = settle(t, m, cmd)
	assert.True(t, m.state.Completed)
	assert.True(t, m.state.LPBurned)
	assert.Equal(t, Finished, m.phase)
	assert.Equal(t, market, m.state.MarketID)

	done := <-m.publisher.doneChan
	assert.Equal(t, m.state.SessionID, done.SessionID)
	_, cmd = m.Update(completeMsg(done))
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Launch complete.")
}

func TestWizardGoBackKeepsArtifacts(t *testing.T) {
	m, fsys := newDryRunWizard(t)
	m = createToken(t, m, fsys)
	mint := m.state.MintAddress
	require.True(t, mint.IsSet())

	m, _ = press(m, back)
	assert.Equal(t, core.CollectTokenInfo, m.state.CurrentStep)
	assert.Equal(t, Editing, m.phase)
	assert.Equal(t, mint, m.state.MintAddress)

	m, cmd := press(m, enter)
	m = settle(t, m, cmd)
	assert.Equal(t, core.RevokeMint, m.state.CurrentStep)
	assert.Equal(t, mint, m.state.MintAddress)
}

func TestWizardRejectsUnreadableLogo(t *testing.T) {
	m, _ := newDryRunWizard(t)
	m.inputs[fieldName].SetValue("Moon")
	m.inputs[fieldSymbol].SetValue("MOON")
	m.inputs[fieldLogo].SetValue("/missing.png")
	m.inputs[fieldQuantity].SetValue("10")
	m.focus = fieldDescription

	m, cmd := press(m, enter)
	assert.Nil(t, cmd)
	assert.Equal(t, Editing, m.phase)
	assert.Contains(t, m.err, "missing.png")
	assert.Equal(t, core.CollectTokenInfo, m.state.CurrentStep)
}

func TestWizardRetryAfterFailure(t *testing.T) {
	calls := 0
	adapter := adapterFunc(func(ctx context.Context, kind remote.OperationKind, args remote.Args) (remote.Artifact, error) {
		calls++
		if calls == 1 {
			return remote.Artifact{}, &remote.OperationError{Kind: remote.KindNetwork, Op: kind, Message: "connection reset"}
		}
		return remote.Artifact{Signatures: []string{"sig"}}, nil
	})
	w, err := wallet.Ephemeral()
	require.NoError(t, err)

	form := core.DefaultFormInputs()
	form.Name, form.Symbol, form.Quantity = "Moon", "MOON", 10
	state := core.NewState(form)
	state.MintAddress = "Mint1111"
	state.CurrentStep = core.RevokeMint

	l := logger.NewNullLogger()
	pub := NewCliStepPublisher(l)
	exec := core.NewExecutor(core.ExecutorOptions{Adapter: adapter, Wallet: w})
	m := newWizardModel(context.Background(), wizardOptions{
		pipeline:  core.NewPipeline(state, exec, pub, nil, l),
		publisher: pub,
		fs:        fs.NewMemoryFileSystem(),
		logger:    l,
	})
	require.Equal(t, Confirming, m.phase)
	assert.Contains(t, m.View(), "b to go back")

	m, cmd := press(m, enter)
	m = settle(t, m, cmd)
	assert.Equal(t, Failed, m.phase)
	assert.Equal(t, core.RevokeMint, m.state.CurrentStep)
	assert.Contains(t, m.state.LastError, "connection reset")
	assert.Contains(t, m.View(), "r to retry")

	m, cmd = press(m, retry)
	m = settle(t, m, cmd)
	assert.Equal(t, 2, calls)
	assert.True(t, m.state.MintRevoked)
	assert.Equal(t, core.RevokeFreeze, m.state.CurrentStep)
	assert.Equal(t, Confirming, m.phase)
}

func TestWizardIgnoresKeysWhileRunning(t *testing.T) {
	m, _ := newDryRunWizard(t)
	m.phase = Running

	m, cmd := press(m, back)
	assert.Nil(t, cmd)
	assert.Equal(t, Running, m.phase)

	_, cmd = press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.NotNil(t, cmd)
}
