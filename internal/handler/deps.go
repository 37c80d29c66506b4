package handler

import (
	"sigrelay/internal/app/relay"
	"sigrelay/internal/configs"
)

type AppDeps struct {
	Hub    *relay.Hub
	Config *configs.AppConfig
}
