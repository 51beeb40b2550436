package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tidyframe/tidyframe/internal/entity"
	"github.com/tidyframe/tidyframe/internal/model"
	"github.com/tidyframe/tidyframe/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <text>",
	Short: "Check one owner string and show how it parses",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := initParser()
		if err != nil {
			return eris.Wrap(err, "validate: init parser")
		}
		return runValidate(cmd.OutOrStdout(), strings.Join(args, " "), p.Parse)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

type validateReport struct {
	Input    validate.InputResult  `json:"input"`
	Entity   entity.Classification `json:"entity"`
	Check    *validate.ResultCheck `json:"check,omitempty"`
	Rejected bool                  `json:"rejected"`
}

func runValidate(out io.Writer, text string, parse func(string) model.ParsedName) error {
	rep := validateReport{Input: validate.ValidateInput(text)}
	rep.Entity = validate.DetectEntityType(text)

	if !rep.Input.Valid {
		rep.Rejected = true
	} else {
		check := validate.ValidateResult(parse(rep.Input.Sanitized))
		rep.Check = &check
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(rep), "validate: encode report")
}
