/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// upnprd is an SSDP relay/cache daemon. It caches UPnP announcements and
// answers M-SEARCH queries from the cache, making devices that announce
// only once discoverable and bridging devices across multicast domains.
//
// The daemon takes no input besides an optional config file and never
// shuts down gracefully: it runs until externally terminated, typically
// under a process supervisor. Fatal socket failures exit with a distinct
// status per failure site.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/carverauto/upnprd/pkg/config"
	"github.com/carverauto/upnprd/pkg/logger"
	"github.com/carverauto/upnprd/pkg/relay"
	"github.com/carverauto/upnprd/pkg/transport"
)

const defaultConfigPath = "/etc/upnprd/upnprd.json"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(transport.ExitCode(err))
	}
}

func run() error {
	configFile := flag.String("config", defaultConfigPath, "Path to upnprd config file")
	flag.Parse()

	ctx := context.Background()

	cfg := relay.DefaultConfig()

	err := config.NewConfig().LoadAndValidate(ctx, *configFile, &cfg)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && *configFile == defaultConfigPath:
		// No config file is the common deployment; defaults apply.
	default:
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info().
		Str("instance_id", uuid.New().String()).
		Str("mode", cfg.Mode).
		Bool("ignore_byebye", cfg.IgnoreByeBye).
		Msg("Starting upnprd")

	switch cfg.Mode {
	case relay.ModeThreaded:
		t, err := transport.NewBlocking(log)
		if err != nil {
			return err
		}

		eng := relay.NewEngine(cfg, t, log)
		eng.Bootstrap()

		return relay.RunThreaded(t, eng)
	default:
		t, err := transport.NewEventLoop(log)
		if err != nil {
			return err
		}

		eng := relay.NewEngine(cfg, t, log)
		eng.Bootstrap()

		return relay.RunEventLoop(t, eng)
	}
}
