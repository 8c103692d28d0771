package app

import (
	"github.com/vk/taskroute/internal/di"
	"github.com/vk/taskroute/internal/registry"
	"github.com/vk/taskroute/modules/env_vars"
	"github.com/vk/taskroute/modules/help"
	"github.com/vk/taskroute/modules/http_client"
	"github.com/vk/taskroute/modules/print"
	"github.com/vk/taskroute/modules/socketio"
)

// coreModules is the definitive list of all modules that are compiled into
// the taskroute binary.
var coreModules = []registry.Module{
	&env_vars.Module{},
	&help.Module{},
	&http_client.Module{},
	&print.Module{},
	&socketio.Module{},
}

// sharedServices are the lazily built services offered to every action.
var sharedServices = map[string]di.Factory{
	di.ServiceHTTPClient: http_client.NewClient,
}
