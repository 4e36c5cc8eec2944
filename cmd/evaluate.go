package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/hh-interviewer/internal/engine"
	"github.com/spigell/hh-interviewer/internal/evaluation"
	"github.com/spigell/hh-interviewer/internal/followup"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"go.uber.org/zap"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [answer]",
	Short: "Score a single answer with the rule-based rubric and suggest follow-ups",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		evaluate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("competency", "general", "competency the question targets")
	evaluateCmd.Flags().String("difficulty", string(interview.Medium), "question difficulty: easy, medium or hard")
	evaluateCmd.Flags().StringSlice("signals", nil, "signals a strong answer is expected to mention")
	evaluateCmd.Flags().StringP("file", "f", "", "read the answer from file instead of arguments (- for stdin)")
}

// evaluationOutput is printed by the evaluate command.
type evaluationOutput struct {
	Evaluation *interview.ScoreDetail       `json:"evaluation"`
	FollowUps  []interview.FollowUpQuestion `json:"follow_ups"`
}

func evaluate(cmd *cobra.Command, args []string) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	answer, err := answerFrom(args, cmd.Flag("file").Value.String(), os.Stdin)
	if err != nil {
		logger.Fatal("reading the answer", zap.Error(err))
	}

	difficulty, err := interview.ParseDifficulty(cmd.Flag("difficulty").Value.String())
	if err != nil {
		logger.Fatal("parsing difficulty", zap.Error(err))
	}

	signals, _ := cmd.Flags().GetStringSlice("signals")
	meta := interview.QuestionMeta{
		Competency:      cmd.Flag("competency").Value.String(),
		Difficulty:      difficulty,
		SignalsExpected: signals,
	}

	out, err := scoreAnswer(answer, meta, viper.GetInt("interview.max-follow-ups"))
	if err != nil {
		logger.Fatal("evaluating the answer", zap.Error(err))
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Fatal("marshal evaluation", zap.Error(err))
	}
	fmt.Println(string(pretty))
}

func scoreAnswer(answer string, meta interview.QuestionMeta, maxFollowUps int) (*evaluationOutput, error) {
	if maxFollowUps <= 0 {
		maxFollowUps = engine.DefaultMaxFollowUps
	}

	eval, err := evaluation.NewRules().Evaluate(answer, meta)
	if err != nil {
		return nil, err
	}

	followUps, err := followup.New().Generate(eval, meta, maxFollowUps)
	if err != nil {
		return nil, fmt.Errorf("generating follow-ups: %w", err)
	}

	return &evaluationOutput{Evaluation: eval, FollowUps: followUps}, nil
}

func answerFrom(args []string, file string, stdin io.Reader) (string, error) {
	file = strings.TrimSpace(file)
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		return readOptionalFile(file)
	case len(args) == 1:
		return args[0], nil
	default:
		return "", errors.New("pass the answer as an argument or with --file")
	}
}
