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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Mode    string `json:"mode"`
	invalid bool
}

var errInvalidTestConfig = errors.New("invalid test config")

func (c *testConfig) Validate() error {
	if c.invalid || c.Mode == "bad" {
		return errInvalidTestConfig
	}

	return nil
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "upnprd.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempConfig(t, `{"mode":"eventloop"}`)

	var cfg testConfig

	err := NewConfig().LoadAndValidate(context.Background(), path, &cfg)

	require.NoError(t, err)
	assert.Equal(t, "eventloop", cfg.Mode)
}

func TestLoadAndValidateMissingFile(t *testing.T) {
	var cfg testConfig

	err := NewConfig().LoadAndValidate(context.Background(), "/nonexistent/upnprd.json", &cfg)

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadAndValidateMalformedJSON(t *testing.T) {
	path := writeTempConfig(t, `{"mode":`)

	var cfg testConfig

	err := NewConfig().LoadAndValidate(context.Background(), path, &cfg)

	require.Error(t, err)
}

func TestLoadAndValidateRejectsInvalidConfig(t *testing.T) {
	path := writeTempConfig(t, `{"mode":"bad"}`)

	var cfg testConfig

	err := NewConfig().LoadAndValidate(context.Background(), path, &cfg)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errInvalidTestConfig))
}
