package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/berniyo/rdcard-lambda/internal/config"
	"github.com/berniyo/rdcard-lambda/internal/handler"
	"github.com/berniyo/rdcard-lambda/internal/logger"
	"github.com/berniyo/rdcard-lambda/internal/rdcard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	clientCfg := cfg.ClientConfig()
	clientCfg.Logger = log
	client, err := rdcard.NewClient(clientCfg)
	if err != nil {
		log.Fatal("failed to configure rdcard client", zap.Error(err))
	}

	opts := []handler.Option{
		handler.WithLogger(log),
		handler.WithPollInterval(cfg.PollInterval),
		handler.WithTimeout(cfg.PollTimeout),
	}

	if cfg.CallbackURL != "" {
		sender, err := handler.NewHTTPSCallbackSender(cfg.CallbackURL, cfg.CallbackSecret, nil)
		if err != nil {
			log.Fatal("failed to configure callback sender", zap.Error(err))
		}
		opts = append(opts, handler.WithCallbackSender(sender))
	} else {
		log.Warn("CHECKOUT_CALLBACK_URL not set; callbacks disabled")
	}

	processor := handler.NewProcessor(client, opts...)

	log.Info("rdcard checkout lambda starting",
		zap.String("environment", string(cfg.Environment)),
		zap.String("base_url", client.BaseURL()),
	)
	lambda.Start(processor.Handle)
}
