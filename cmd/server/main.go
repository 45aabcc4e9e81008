package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/cbodonnell/slipstream/pkg/game"
	"github.com/cbodonnell/slipstream/pkg/log"
	"github.com/cbodonnell/slipstream/pkg/network"
	"github.com/cbodonnell/slipstream/pkg/queue"
)

type config struct {
	WSPort   int    `env:"SLIPSTREAM_WS_PORT" envDefault:"8080"`
	LogLevel string `env:"SLIPSTREAM_LOG_LEVEL" envDefault:"info"`
}

func main() {
	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		panic(fmt.Sprintf("Failed to parse environment: %v", err))
	}

	wsPort := flag.Int("ws-port", cfg.WSPort, "WebSocket port to listen on")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	ctx := context.Background()

	clientManager := network.NewClientManager()
	clientMessageQueue := queue.NewInMemoryQueue(10000)
	connectionEventQueue := queue.NewInMemoryQueue(1000)

	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		Sender:               clientManager,
		ClientMessageQueue:   clientMessageQueue,
		ConnectionEventQueue: connectionEventQueue,
		GameLoopInterval:     game.DefaultGameLoopInterval,
		ReapInterval:         game.DefaultReapInterval,
	})

	wsServer := network.NewWSServer(network.NewWSServerOptions{
		Port:                 *wsPort,
		ClientManager:        clientManager,
		MessageQueue:         clientMessageQueue,
		ConnectionEventQueue: connectionEventQueue,
		StatsFunc:            gameManager.Stats,
	})
	go wsServer.Start(ctx)

	log.Info("Starting game manager")
	if err := gameManager.Start(ctx); err != nil {
		log.Error("Game manager stopped: %v", err)
	}
}
