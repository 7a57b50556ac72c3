// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the flowlog
// commands.
//
// Configuration is loaded from a single YAML file specified by the
// FLOWLOG_CONFIG environment variable or the --config flag. There are
// no fallbacks or automatic discovery: every run either names its
// config file or runs on the documented defaults, so a bench setup is
// always reproducible from the file alone.
package config
