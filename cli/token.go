package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/santiagomed/launchpad/core"
	"github.com/santiagomed/launchpad/fs"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage token definition files",
}

var tokenInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Answer a few questions and write a token definition file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := cmd.Flags().GetString("out")
		if err != nil {
			return fmt.Errorf("error parsing flags: %w", err)
		}
		return runTokenInit(fs.NewOsFileSystem(), out)
	},
}

func init() {
	tokenCmd.AddCommand(tokenInitCmd)
	tokenInitCmd.Flags().StringP("out", "o", "token.yaml", "Where to write the token definition")
}

// tokenAnswers mirrors the survey questions.
type tokenAnswers struct {
	Name        string `survey:"name"`
	Symbol      string `survey:"symbol"`
	Logo        string `survey:"logo"`
	Decimals    string `survey:"decimals"`
	Quantity    string `survey:"quantity"`
	Description string `survey:"description"`
	SolAmount   string `survey:"sol_amount"`
}

func runTokenInit(fsys *fs.FileSystem, out string) error {
	out = fs.ExpandHome(out)
	if fsys.Exists(out) {
		overwrite := false
		prompt := &survey.Confirm{Message: fmt.Sprintf("%s exists. Overwrite it?", out)}
		if err := survey.AskOne(prompt, &overwrite); err != nil {
			return err
		}
		if !overwrite {
			return nil
		}
	}

	var answers tokenAnswers
	if err := survey.Ask(tokenQuestions(fsys), &answers); err != nil {
		return err
	}
	form, err := answers.form(fsys)
	if err != nil {
		return err
	}
	if err := writeTokenFile(fsys, out, form); err != nil {
		return err
	}
	fmt.Printf("Token definition written to %s. Run: launchpad wizard --token %s\n", out, out)
	return nil
}

func tokenQuestions(fsys *fs.FileSystem) []*survey.Question {
	decimals := make([]string, 0, core.MaxDecimals+1)
	for d := core.MaxDecimals; d >= 0; d-- {
		decimals = append(decimals, strconv.Itoa(d))
	}

	return []*survey.Question{
		{
			Name:     "name",
			Prompt:   &survey.Input{Message: "Token name:"},
			Validate: survey.ComposeValidators(survey.Required, survey.MaxLength(32)),
		},
		{
			Name:     "symbol",
			Prompt:   &survey.Input{Message: "Symbol:"},
			Validate: survey.ComposeValidators(survey.Required, survey.MaxLength(10)),
		},
		{
			Name:   "logo",
			Prompt: &survey.Input{Message: "Path to the logo image:"},
			Validate: func(ans interface{}) error {
				_, err := fsys.ReadLogo(fmt.Sprint(ans))
				return err
			},
		},
		{
			Name:   "decimals",
			Prompt: &survey.Select{Message: "Decimals:", Options: decimals, Default: decimals[0]},
		},
		{
			Name:   "quantity",
			Prompt: &survey.Input{Message: "Quantity to mint:"},
			Validate: func(ans interface{}) error {
				q, err := parseQuantity(fmt.Sprint(ans))
				if err == nil && q == 0 {
					err = errors.New("quantity must be greater than zero")
				}
				return err
			},
		},
		{
			Name:   "description",
			Prompt: &survey.Multiline{Message: "Description (optional):"},
		},
		{
			Name:   "sol_amount",
			Prompt: &survey.Input{Message: "SOL to pair as liquidity (optional):"},
			Validate: func(ans interface{}) error {
				if s := strings.TrimSpace(fmt.Sprint(ans)); s != "" {
					_, err := core.ParseSolAmount(s)
					return err
				}
				return nil
			},
		},
	}
}

// form converts the answers and checks them the way the wizard will.
func (a tokenAnswers) form(fsys *fs.FileSystem) (core.FormInputs, error) {
	form := core.DefaultFormInputs()
	form.Name = strings.TrimSpace(a.Name)
	form.Symbol = strings.TrimSpace(a.Symbol)
	form.LogoPath = strings.TrimSpace(a.Logo)
	form.Description = strings.TrimSpace(a.Description)
	form.SolAmount = strings.TrimSpace(a.SolAmount)

	if a.Decimals != "" {
		d, err := strconv.ParseUint(a.Decimals, 10, 8)
		if err != nil {
			return form, fmt.Errorf("invalid decimals %q", a.Decimals)
		}
		form.Decimals = uint8(d)
	}
	q, err := parseQuantity(a.Quantity)
	if err != nil {
		return form, err
	}
	form.Quantity = q

	if err := loadLogo(fsys, &form); err != nil {
		return form, err
	}
	if err := form.Validate(); err != nil {
		return form, err
	}
	return form, nil
}

func writeTokenFile(fsys *fs.FileSystem, path string, form core.FormInputs) error {
	data, err := yaml.Marshal(form)
	if err != nil {
		return fmt.Errorf("error encoding token definition: %w", err)
	}
	return fsys.WriteFile(path, data)
}
