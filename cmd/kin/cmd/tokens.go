package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/msto63/kinematics/foundation/kinematic"
	"github.com/spf13/cobra"
)

var tokensJSON bool

var tokensCmd = &cobra.Command{
	Use:   "tokens <programm|->",
	Short: "Zeigt die Tokenliste eines Programms",
	Long: `Zeigt die Tokens, die der Interpreter ausführt, mit Zeile, Spalte und Typ.
Konstante Ausdrücke wie (4800+5) erscheinen bereits zusammengefasst.

Beispiele:
  kin tokens prog.pmc
  kin tokens prog.pmc --json`,
	Args: cobra.ExactArgs(1),
	RunE: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.Flags().BoolVar(&tokensJSON, "json", false, "Ausgabe als JSON")
}

type tokenView struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Type   string `json:"type"`
	Value  string `json:"value"`
}

func runTokens(cmd *cobra.Command, args []string) error {
	lines, err := readProgram(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	program, err := kinematic.Compile(lines, kinematic.Options{})
	if err != nil {
		return err
	}

	tokens := program.Tokens()
	out := cmd.OutOrStdout()

	if tokensJSON {
		views := make([]tokenView, len(tokens))
		for i, tok := range tokens {
			views[i] = tokenView{Line: tok.Line, Column: tok.Column, Type: tok.Type.String(), Value: tok.Value}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	t := newTable("ZEILE", "SPALTE", "TYP", "TOKEN")
	for _, tok := range tokens {
		t.Row(strconv.Itoa(tok.Line), strconv.Itoa(tok.Column), tok.Type.String(), tok.Value)
	}
	fmt.Fprintln(out, t.Render())
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("Gesamt: %d Token(s)  Hash: %s", len(tokens), program.Hash()[:12])))
	return nil
}
