package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tripalhq/tripal/internal/agent"
	"github.com/tripalhq/tripal/internal/app"
	"github.com/tripalhq/tripal/internal/config"
	"github.com/tripalhq/tripal/internal/ui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive console (default)",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// runChat starts the interactive console. Conversations stay in memory;
// nothing is persisted.
func runChat(_ *cobra.Command, _ []string) error {
	logger := initLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.SetupConsole(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	planner, err := a.Sessions.Planner(uuid.New().String())
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	ui.PrintBanner(os.Stdout, AppVersion, cfg.ModelName)
	fmt.Println("ご興味のある場所や条件を入力してください。/help でコマンド一覧が出ます。")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("あなた> ")
		if !scanner.Scan() {
			// EOF (Ctrl+D)
			fmt.Println("\nまたのご利用をお待ちしております。")
			break
		}
		if ctx.Err() != nil {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			var quit bool
			planner, quit = handleCommand(input, a, planner)
			if quit {
				break
			}
			continue
		}

		fmt.Print("TriPal> ")
		for frag := range planner.HandleTurn(ctx, input) {
			fmt.Print(frag.Message)
		}
		fmt.Println()
		fmt.Println()
	}

	return scanner.Err()
}

// handleCommand handles slash commands. It returns the planner to keep
// using (a fresh one after /clear) and whether the console should exit.
func handleCommand(input string, a *app.App, planner *agent.Planner) (*agent.Planner, bool) {
	switch strings.Fields(input)[0] {
	case "/help":
		fmt.Println("コマンド一覧:")
		fmt.Println("  /help          このヘルプを表示")
		fmt.Println("  /clear         会話履歴をリセット")
		fmt.Println("  /exit, /quit   終了")
		fmt.Println()

	case "/clear":
		fresh, err := newConsoleSession(a)
		if err != nil {
			fmt.Fprintf(os.Stderr, "セッションのリセットに失敗しました: %v\n", err)
			return planner, false
		}
		fmt.Println("会話履歴をリセットしました。")
		fmt.Println()
		return fresh, false

	case "/exit", "/quit":
		fmt.Println("またのご利用をお待ちしております。")
		return planner, true

	default:
		fmt.Printf("不明なコマンドです: %s\n", input)
		fmt.Println("/help でコマンド一覧が出ます。")
		fmt.Println()
	}

	return planner, false
}

func newConsoleSession(a *app.App) (*agent.Planner, error) {
	return a.Sessions.Planner(uuid.New().String())
}
