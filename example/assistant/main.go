package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/ficheagent/agent"
	"github.com/tbxark/ficheagent/fiche"
)

func main() {
	conf := flag.String("config", "config.json", "path to config file")
	document := flag.String("document", "", "optional OCR text file to pre-fill a défauts fiche")
	flag.Parse()
	config, err := loadConfig(*conf)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := startApp(context.Background(), config, *document); err != nil {
		log.Fatalf("start app: %v", err)
	}
}

func startApp(ctx context.Context, config *Config, documentPath string) error {
	slog.SetLogLoggerLevel(slog.LevelInfo)
	ctx = agent.WithSession(ctx, "terminal")

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  config.APIKey,
		Model:   config.Model,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return err
	}

	manager := agent.NewManagerFromModel(cm)
	sessions := agent.NewMemorySessionStore()
	history := agent.NewMemoryHistoryStore(agent.KeepSystemLastNTrimmer{N: 50})
	commands := agent.NewCommandParser()

	if documentPath != "" {
		ocr, rErr := os.ReadFile(documentPath)
		if rErr != nil {
			return rErr
		}
		if sErr := manager.SeedFromDocument(ctx, fiche.TypeDefauts, string(ocr)); sErr != nil {
			return sErr
		}
	}

	fmt.Println(manager.InitialMessage())
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\nTechnicien: ")
		input, rErr := reader.ReadString('\n')
		if rErr != nil {
			fmt.Println("Fin de session.")
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		switch commands.Parse(input) {
		case agent.CmdCancel:
			fmt.Println("Fiche abandonnée. À bientôt.")
			return nil
		case agent.CmdExport:
			out, eErr := manager.ExportText(time.Now())
			if eErr != nil {
				fmt.Printf("Export impossible: %v\n", eErr)
				continue
			}
			fmt.Println(out)
			continue
		case agent.CmdNewFiche:
			manager.Reset()
			_ = history.Clear(ctx)
			fmt.Println(manager.InitialMessage())
			continue
		}

		updated, tErr := manager.UserTurn(ctx, input)
		if tErr != nil {
			slog.Error("turn failed", "err", tErr)
			fmt.Println("Je n'ai pas pu traiter ta réponse, peux-tu reformuler ?")
			continue
		}
		if err := sessions.Save(ctx, manager.Snapshot()); err != nil {
			slog.Warn("failed to save session", "err", err)
		}

		reply, rErr := assistantReply(ctx, cm, manager, history, input, updated)
		if rErr != nil {
			slog.Error("reply failed", "err", rErr)
			if q, ok := manager.NextQuestion(); ok {
				reply = q
			} else {
				reply = "La fiche est complète. Tape « export » pour la générer."
			}
		}
		fmt.Printf("\nAssistant: %s\n", reply)
	}
}

// assistantReply asks the model for the conversational reply, separate from
// the extraction call: it sees the chat history and the fiche progress, and
// is expected to confirm briefly then ask the next question.
func assistantReply(ctx context.Context, cm model.BaseChatModel, manager *agent.Manager, history *agent.HistoryStore, input string, updated []fiche.FieldRef) (string, error) {
	var progress strings.Builder
	if manager.Mode() != agent.ModeSelection {
		fmt.Fprintf(&progress, "Complétion actuelle: %.0f%%\n", manager.Percentage())
		if len(updated) > 0 {
			names := make([]string, 0, len(updated))
			for _, ref := range updated {
				names = append(names, ref.DisplayName)
			}
			fmt.Fprintf(&progress, "Champs remplis par le dernier message: %s\n", strings.Join(names, ", "))
		}
		if q, ok := manager.NextQuestion(); ok {
			fmt.Fprintf(&progress, "Prochaine question à poser: %s\n", q)
		} else {
			progress.WriteString("La fiche est complète; propose l'export.\n")
		}
	}

	msgs, err := history.Append(ctx, schema.UserMessage(input))
	if err != nil {
		return "", err
	}
	prompt := []*schema.Message{schema.SystemMessage(manager.SystemPrompt() + "\n" + progress.String())}
	prompt = append(prompt, msgs...)

	resp, err := cm.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if _, err := history.Append(ctx, resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}
