// Copyright 2023 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/thediveo/spagate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var configEnvVars = []string{
	EnvEnv, EnvAPIBaseURL, EnvAddr, EnvOpsAddr, EnvStaticDir, EnvIndex, EnvLogLevel,
}

// setenv sets an environment variable until the current test ends.
func setenv(name, value string) {
	GinkgoHelper()
	old, ok := os.LookupEnv(name)
	Expect(os.Setenv(name, value)).To(Succeed())
	DeferCleanup(func() {
		if ok {
			_ = os.Setenv(name, old)
			return
		}
		_ = os.Unsetenv(name)
	})
}

var _ = Describe("gateway configuration", func() {

	var tmpDir string

	BeforeEach(func() {
		// Start from a clean slate, restoring the environment afterwards.
		for _, name := range configEnvVars {
			if old, ok := os.LookupEnv(name); ok {
				Expect(os.Unsetenv(name)).To(Succeed())
				DeferCleanup(os.Setenv, name, old)
			}
		}
		tmpDir = Successful(os.MkdirTemp("", "spagate-config-*"))
		DeferCleanup(os.RemoveAll, tmpDir)
	})

	It("defaults everything", func() {
		cfg := Successful(Load([]string{"-env-file", filepath.Join(tmpDir, "nada.env")}))
		Expect(cfg.Runtime).To(Equal(spagate.RuntimeConfig{
			Env:        "DEV",
			APIBaseURL: spagate.DefaultAPIBaseURL,
		}))
		Expect(cfg.Addr).To(Equal(":8000"))
		Expect(cfg.OpsAddr).To(Equal(":9090"))
		Expect(cfg.Index).To(Equal("index.html"))
		Expect(cfg.EnvFile).To(BeEmpty())
		Expect(cfg.LogLevel).To(Equal(slog.LevelInfo))
		Expect(filepath.IsAbs(cfg.StaticDir)).To(BeTrue())
		Expect(cfg.StaticDir).To(HaveSuffix(filepath.Join("frontend", "dist")))
	})

	It("takes flags", func() {
		cfg := Successful(Load([]string{
			"-env-file", "",
			"-addr", "127.0.0.1:8080",
			"-static-dir", tmpDir,
			"-index", "shell.html",
			"-log-level", "debug",
		}))
		Expect(cfg.Addr).To(Equal("127.0.0.1:8080"))
		Expect(cfg.StaticDir).To(Equal(tmpDir))
		Expect(cfg.Index).To(Equal("shell.html"))
		Expect(cfg.LogLevel).To(Equal(slog.LevelDebug))
	})

	It("rejects unknown flags", func() {
		Expect(Load([]string{"-foobar"})).Error().To(HaveOccurred())
	})

	It("lets environment variables override flags", func() {
		setenv(EnvEnv, "PROD")
		setenv(EnvAPIBaseURL, "https://api.example.org/v1")
		setenv(EnvAddr, ":9999")
		setenv(EnvOpsAddr, "")
		setenv(EnvStaticDir, tmpDir)
		setenv(EnvLogLevel, "WARNING")
		cfg := Successful(Load([]string{"-env-file", "", "-addr", ":1234", "-static-dir", "/nowhere"}))
		Expect(cfg.Runtime).To(Equal(spagate.RuntimeConfig{
			Env:        "PROD",
			APIBaseURL: "https://api.example.org/v1",
		}))
		Expect(cfg.Addr).To(Equal(":9999"))
		Expect(cfg.OpsAddr).To(BeEmpty())
		Expect(cfg.StaticDir).To(Equal(tmpDir))
		Expect(cfg.LogLevel).To(Equal(slog.LevelWarn))
	})

	It("keeps explicitly empty runtime values", func() {
		setenv(EnvEnv, "")
		setenv(EnvAPIBaseURL, "")
		setenv(EnvAddr, "")
		cfg := Successful(Load([]string{"-env-file", ""}))
		Expect(cfg.Runtime).To(Equal(spagate.RuntimeConfig{}))
		Expect(cfg.Addr).To(Equal(":8000"))
	})

	It("loads a dotenv file without overriding the environment", func() {
		envFile := filepath.Join(tmpDir, "test.env")
		Expect(os.WriteFile(envFile, []byte(
			"ENV=STAGING\nAPI_BASE_URL=https://staging.example.org/api/v1\n"), 0o600)).To(Succeed())
		for _, name := range []string{EnvEnv, EnvAPIBaseURL} {
			DeferCleanup(os.Unsetenv, name)
		}
		cfg := Successful(Load([]string{"-env-file", envFile}))
		Expect(cfg.EnvFile).To(Equal(envFile))
		Expect(cfg.Runtime.Env).To(Equal("STAGING"))
		Expect(cfg.Runtime.APIBaseURL).To(Equal("https://staging.example.org/api/v1"))

		setenv(EnvEnv, "PROD")
		_ = os.Unsetenv(EnvAPIBaseURL)
		cfg = Successful(Load([]string{"-env-file", envFile}))
		Expect(cfg.Runtime.Env).To(Equal("PROD"))
		Expect(cfg.Runtime.APIBaseURL).To(Equal("https://staging.example.org/api/v1"))
	})

	It("fails on unreadable dotenv files", func() {
		Expect(Load([]string{"-env-file", tmpDir})).Error().To(HaveOccurred())
	})

	DescribeTable("parses log levels",
		func(level string, expected slog.Level) {
			Expect(ParseLogLevel(level)).To(Equal(expected))
		},
		Entry("debug", "debug", slog.LevelDebug),
		Entry(" Info ", " Info ", slog.LevelInfo),
		Entry("warn", "warn", slog.LevelWarn),
		Entry("warning", "warning", slog.LevelWarn),
		Entry("ERROR", "ERROR", slog.LevelError),
		Entry("bonkers", "bonkers", slog.LevelInfo),
	)

})
