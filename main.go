package main

import (
	"github.com/agentdeck/agentdeck/pkg/config"
	"github.com/agentdeck/agentdeck/webui"
	"github.com/agentdeck/agentdeck/xlog"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		panic(err)
	}

	app := webui.NewApp(
		webui.WithAPIBaseURL(cfg.APIBaseURL),
		webui.WithSocketURL(cfg.SocketURL),
		webui.WithSessionSecret(cfg.SessionSecret),
		webui.WithStripePublishableKey(cfg.StripePublishableKey),
		webui.WithApiKeys(cfg.APIKeys),
	)

	xlog.Info("Starting AgentDeck", "listen", cfg.ListenAddr, "api", cfg.APIBaseURL)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		panic(err)
	}
}
