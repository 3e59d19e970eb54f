// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/annchain/blockdemo/chain"
	"github.com/annchain/blockdemo/common/files"
	"github.com/annchain/blockdemo/common/utilfuncs"
	"github.com/annchain/blockdemo/miner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const envPrefix = "blockdemo"

func setDefaults() {
	viper.SetDefault("rpc.enabled", true)
	viper.SetDefault("rpc.port", 8000)
	viper.SetDefault("websocket.enabled", true)
	viper.SetDefault("websocket.port", 8002)

	viper.SetDefault("chain.difficulty", int(chain.DefaultDifficulty))
	viper.SetDefault("chain.max_attempts", miner.DefaultMaxAttempts)
	viper.SetDefault("chain.hash_algorithm", string(chain.HashAlgorithmSha256))
	viper.SetDefault("chain.hash_cache_size", 1024)
	viper.SetDefault("chain.persist", true)

	viper.SetDefault("performance.enabled", false)
	viper.SetDefault("performance.interval_seconds", 30)
}

// readConfig merges {root}/config/config.toml when it exists, then the environment.
func readConfig() {
	configPath := files.FixPrefixPath(folderOf(ConfigDir), "config.toml")

	if files.FileExists(configPath) {
		mergeLocalConfig(configPath)
	} else {
		logrus.WithField("path", configPath).Debug("config file not found, using defaults")
	}

	mergeEnvConfig()
}

// printConfig prints the running config in console.
func printConfig() {
	b, err := json.MarshalIndent(viper.AllSettings(), "", "    ")
	utilfuncs.PanicIfError(err, "dump json")
	fmt.Println(string(b))
}

func mergeEnvConfig() {
	// env override, BLOCKDEMO_CHAIN_DIFFICULTY sets chain.difficulty
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func writeConfig() {
	configPath := files.FixPrefixPath(folderOf(ConfigDir), "config_dump.toml")
	err := viper.WriteConfigAs(configPath)
	if err != nil {
		logrus.WithError(err).WithField("path", configPath).Warn("failed to dump config")
	}
}

func mergeLocalConfig(configPath string) {
	absPath, err := filepath.Abs(configPath)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing config file path: %s", absPath))

	file, err := os.Open(absPath)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on opening config file: %s", absPath))
	defer file.Close()

	viper.SetConfigType("toml")
	err = viper.MergeConfig(file)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on reading config file: %s", absPath))
}
