package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags binds each config key to its flag. Unchanged flags fall through
// to the environment and the defaults.
func bindFlags(v *viper.Viper, lookup func(string) *pflag.Flag, keys map[string]string) {
	for key, name := range keys {
		if flag := lookup(name); flag != nil {
			_ = v.BindPFlag(key, flag)
		}
	}
}
