package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/livetrack/core/codec"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [frame]",
	Short: "Decode a location frame and print it as JSON",
	Long:  "Decode one frame given as argument, or every line read from stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if len(args) == 1 {
		return decodeOne(enc, []byte(args[0]))
	}
	sc := bufio.NewScanner(cmd.InOrStdin())
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := decodeOne(enc, sc.Bytes()); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

func decodeOne(enc *json.Encoder, raw []byte) error {
	u, err := codec.Decode(raw)
	if err != nil {
		return err
	}
	return enc.Encode(u)
}
