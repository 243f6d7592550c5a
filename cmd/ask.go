package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/autoanalyst/internal/ai"
	"github.com/KaramelBytes/autoanalyst/internal/bridge"
	"github.com/KaramelBytes/autoanalyst/internal/loader"
	"github.com/KaramelBytes/autoanalyst/internal/session"
	"github.com/KaramelBytes/autoanalyst/internal/utils"
)

var (
	askInput    string
	askRaw      bool
	askShowCode bool
	askChartOut string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question about a dataset via the completion service",
	Long:  `Ask loads a dataset, sends the question plus a sample of the table to the completion service, executes the code it returns against the table, and prints the captured output. Charts are written as JSON when --chart-out is set.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(askInput)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		t, err := loader.Load(askInput, data)
		if err != nil {
			return err
		}

		sess := session.New(t)
		sess.SetCleaning(!askRaw)

		key := c.APIKey
		if key == "" {
			key, err = promptKey()
			if err != nil {
				return err
			}
		}

		client := ai.NewClientWithBaseURL(key, time.Duration(c.HTTPTimeoutSec)*time.Second, c.BaseURL).WithModel(c.Model)
		res, err := bridge.Answer(cmd.Context(), client, sess, args[0])
		if err != nil {
			return err
		}

		if askShowCode {
			fmt.Fprintf(os.Stderr, "--- code ---\n%s\n------------\n", res.Code)
		}
		if res.Output != "" {
			fmt.Print(res.Output)
		}
		if res.Chart != nil {
			if askChartOut != "" {
				b, err := utils.PrettyJSON(res.Chart)
				if err != nil {
					return fmt.Errorf("marshal chart: %w", err)
				}
				if err := utils.SafeWriteFile(askChartOut, b); err != nil {
					return fmt.Errorf("write chart: %w", err)
				}
				fmt.Fprintf(os.Stderr, "✓ Chart written to %s\n", askChartOut)
			} else {
				fmt.Println(bridge.ChartPlaceholder)
			}
		}
		return nil
	},
}

// promptKey asks for the credential interactively when config and env carry
// none. Chat is unusable without it.
func promptKey() (string, error) {
	fmt.Fprint(os.Stderr, "API key: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	askCmd.Flags().StringVarP(&askInput, "file", "f", "", "input CSV or XLSX file (required)")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "query the raw table instead of the cleaned one")
	askCmd.Flags().BoolVar(&askShowCode, "show-code", false, "print the generated code before the answer")
	askCmd.Flags().StringVar(&askChartOut, "chart-out", "", "write a produced chart as JSON to this path")
	askCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(askCmd)
}
