package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/hh-interviewer/internal/engine"
	"github.com/spigell/hh-interviewer/internal/flow"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"go.uber.org/zap"
)

const (
	PromptContinue = "Continue"
	PromptReport   = "Show report"
	PromptFinish   = "Finish interview"
)

var errFinish = errors.New("finish requested")

var practicePrompt = promptui.Select{
	Label: "Next?",
	Items: []string{PromptContinue, PromptReport, PromptFinish},
}

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run an interactive mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		practice(cmd)
	},
}

func init() {
	rootCmd.AddCommand(practiceCmd)

	practiceCmd.Flags().StringP("role", "r", "", "role the candidate interviews for")
	practiceCmd.Flags().StringP("company", "c", "", "company name used in questions")
	practiceCmd.Flags().String("round", "", "round type: "+strings.Join(flow.RoundTypes(), ", "))
	practiceCmd.Flags().String("resume-file", "", "file with the candidate resume")
	practiceCmd.Flags().String("jd-file", "", "file with the job description")
	practiceCmd.Flags().StringP("user", "u", "", "user id stored with the session")
	practiceCmd.Flags().String("session", "", "resume an existing session instead of starting one")

	viper.BindPFlag("interview.round-type", practiceCmd.Flags().Lookup("round"))
}

func practice(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hh-interviewer", zap.String("version", resolvedVersion()))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	e, cleanup, err := newEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating the interview engine", zap.Error(err))
	}
	defer cleanup()

	sessionID, question, err := openSession(ctx, cmd, e)
	if err != nil {
		logger.Fatal("opening a session", zap.Error(err))
	}

	fmt.Printf("\nInterviewer: %s\n\n", question)

	for {
		answer, err := askAnswer()
		if err != nil {
			logger.Fatal("reading the answer", zap.Error(err))
		}

		turn, err := e.SubmitAnswer(ctx, engine.SubmitRequest{SessionID: sessionID, Answer: answer})
		if err != nil {
			logger.Error("submitting the answer", zap.Error(err))
			continue
		}

		printTurn(turn)

		if turn.Completed {
			logger.Info("interview completed", zap.String("reason", string(turn.CompletionReason)))
			break
		}

		if err := nextAction(ctx, e, sessionID, logger); err != nil {
			if errors.Is(err, errFinish) {
				break
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		fmt.Printf("\nInterviewer: %s\n\n", turn.NextQuestion)
	}

	if _, err := e.Complete(ctx, sessionID); err != nil {
		logger.Warn("completing the session", zap.Error(err))
	}

	if err := printReport(ctx, e, sessionID); err != nil {
		logger.Fatal("building the report", zap.Error(err))
	}
}

func openSession(ctx context.Context, cmd *cobra.Command, e *engine.Engine) (string, string, error) {
	if id := strings.TrimSpace(cmd.Flag("session").Value.String()); id != "" {
		s, err := e.Resume(ctx, id)
		if err != nil {
			return "", "", err
		}
		if s.Completed {
			return "", "", fmt.Errorf("session %s is already completed", id)
		}
		return s.SessionID, s.LastQuestion(), nil
	}

	resume, err := readOptionalFile(cmd.Flag("resume-file").Value.String())
	if err != nil {
		return "", "", err
	}
	jd, err := readOptionalFile(cmd.Flag("jd-file").Value.String())
	if err != nil {
		return "", "", err
	}

	started, err := e.Start(ctx, engine.StartRequest{
		UserID:         cmd.Flag("user").Value.String(),
		Role:           cmd.Flag("role").Value.String(),
		Company:        cmd.Flag("company").Value.String(),
		RoundType:      viper.GetString("interview.round-type"),
		Resume:         resume,
		JobDescription: jd,
	})
	if err != nil {
		return "", "", err
	}

	fmt.Printf("Session %s (%s round)\n", started.Session.SessionID, started.Session.RoundType)
	return started.Session.SessionID, started.Question, nil
}

func askAnswer() (string, error) {
	p := promptui.Prompt{
		Label: "Your answer",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("answer is empty")
			}
			return nil
		},
	}
	return p.Run()
}

func nextAction(ctx context.Context, e *engine.Engine, sessionID string, logger *zap.Logger) error {
	for {
		_, action, err := practicePrompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptContinue:
			return nil
		case PromptFinish:
			logger.Info("exiting", zap.String("reason", "finished from prompt"))
			return errFinish
		case PromptReport:
			if err := printReport(ctx, e, sessionID); err != nil {
				return err
			}
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

func printTurn(turn *engine.TurnResult) {
	ev := turn.Evaluation
	fmt.Printf("\nScore %.2f (%v)\n", ev.Scores.Average(), ev.Meta[interview.MetaEvaluator])
	for _, d := range interview.Dimensions {
		fmt.Printf("  %-22s %.1f\n", d, ev.Scores.Get(d))
	}
	if ev.Rationale != "" {
		fmt.Printf("%s\n", ev.Rationale)
	}
	for _, item := range ev.ActionItems {
		fmt.Printf("  - %s\n", item)
	}
}

func printReport(ctx context.Context, e *engine.Engine, sessionID string) error {
	r, err := e.Report(ctx, sessionID)
	if err != nil {
		return err
	}
	pretty, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	fmt.Println(string(pretty))
	return nil
}

func readOptionalFile(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// redacted hides inline secrets before the config is logged.
func redacted(config *Config) *Config {
	if config == nil {
		return nil
	}
	out := *config
	if config.AI != nil && config.AI.Gemini != nil && config.AI.Gemini.APIKey != "" {
		ai := *config.AI
		g := *config.AI.Gemini
		g.APIKey = "***"
		ai.Gemini = &g
		out.AI = &ai
	}
	if config.Store != nil && config.Store.Redis != nil && config.Store.Redis.Password != "" {
		st := *config.Store
		rc := *config.Store.Redis
		rc.Password = "***"
		st.Redis = &rc
		out.Store = &st
	}
	return &out
}
