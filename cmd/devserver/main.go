package main

import (
	"context"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/internal/devstub"
	"github.com/hearth-app/hearth-client/internal/logging"
)

func main() {
	log, err := logging.New(os.Getenv("DEVSERVER_LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	addr := os.Getenv("DEVSERVER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	reg := devstub.NewRegistry(context.Background(), log)
	handler := devstub.Routes(reg, log)

	log.Info("devserver listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
