package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/usherbot/usher/internal/config"
	"github.com/usherbot/usher/internal/controllers"
	"github.com/usherbot/usher/internal/managers"
	"github.com/usherbot/usher/internal/server"
	"github.com/usherbot/usher/pkg/agentic/agent"
	"github.com/usherbot/usher/pkg/agentic/provider"
	"github.com/usherbot/usher/pkg/agentic/provider/anthropic"
	"github.com/usherbot/usher/pkg/agentic/provider/openai"
	"github.com/usherbot/usher/pkg/agentic/tool"
	"github.com/usherbot/usher/pkg/localtools"
	"github.com/usherbot/usher/pkg/robot"
)

func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the agent server",
		Long:  `Start the HTTP server, connect to the robot broker and begin serving completion requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return runStart()
		},
	}

	return cmd
}

func runStart() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Info().
		Str("provider", cfg.Backend.Provider).
		Str("model", cfg.Backend.Model).
		Str("address", cfg.HTTPAddress).
		Msg("Starting agent server")

	backend := buildBackend(cfg)

	tools := localtools.FileTools(cfg.Tools.BaseDir)
	tools = append(tools, localtools.Calculator())

	if cfg.MQTT.BrokerURL != "" {
		mqttClient, err := robot.Dial(ctx, cfg.MQTT.BrokerURL, cfg.MQTT.ClientID)
		if err != nil {
			return fmt.Errorf("connect robot broker: %w", err)
		}
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer closeCancel()
			if err := mqttClient.Close(closeCtx); err != nil {
				log.Warn().Err(err).Msg("MQTT disconnect failed")
			}
		}()

		controller := robot.NewController(mqttClient, nil)
		tools = append(tools, robot.Tools(controller)...)
	} else {
		log.Warn().Msg("No MQTT broker configured, robot tools disabled")
	}

	registry := tool.NewRegistry(tools...)

	invoker, err := tool.NewInvoker(registry)
	if err != nil {
		return fmt.Errorf("build tool invoker: %w", err)
	}

	loop, err := agent.New(
		agent.WithBackend(backend),
		agent.WithRegistry(registry),
		agent.WithInvoker(invoker),
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
	)
	if err != nil {
		return fmt.Errorf("build planning loop: %w", err)
	}

	sessionManager := managers.NewSessionManager(managers.SessionManagerDependencies{
		MaxSessions:  cfg.Sessions.Max,
		MemoryWindow: cfg.Agent.MemoryWindow,
	})

	reaper := managers.NewSessionReaper(managers.SessionReaperDependencies{
		Manager: sessionManager,
		Timeout: cfg.Sessions.Timeout,
	})
	go reaper.Run(ctx)

	agentController := controllers.NewAgentController(controllers.AgentControllerDependencies{
		SessionManager: sessionManager,
		Loop:           loop,
		RequestTimeout: cfg.Agent.RequestTimeout,
		Model:          cfg.Backend.Model,
	})

	sessionController := controllers.NewSessionController(controllers.SessionControllerDependencies{
		SessionManager: sessionManager,
		Registry:       registry,
		MaxSessions:    cfg.Sessions.Max,
		SessionTimeout: cfg.Sessions.Timeout,
		Provider:       cfg.Backend.Provider,
		Model:          cfg.Backend.Model,
	})

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		AgentController:   agentController,
		SessionController: sessionController,
	})

	if err := app.Listen(cfg.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}

	log.Info().Msg("Agent server stopped")
	return nil
}

func buildBackend(cfg *config.Config) provider.CompletionBackend {
	switch cfg.Backend.Provider {
	case "anthropic":
		return anthropic.NewWithConfig(anthropic.Config{
			APIKey:  cfg.Backend.APIKey,
			BaseURL: cfg.Backend.BaseURL,
			Model:   cfg.Backend.Model,
		})
	default:
		return openai.NewWithConfig(openai.Config{
			APIKey:  cfg.Backend.APIKey,
			BaseURL: cfg.Backend.BaseURL,
			Model:   cfg.Backend.Model,
		})
	}
}
