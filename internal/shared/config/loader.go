package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const DefaultConfigRelPath = "configs/conf.yml"

var ErrConfigNotFound = errors.New("config file not found")

// Resolve 确定配置文件路径：
// 1) 传入 cfgName（相对/绝对路径）则优先使用；
// 2) 否则从当前目录开始向上查找 `configs/conf.yml`。
func Resolve(cfgName string) (string, error) {
	curDir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if cfgName != "" {
		if !filepath.IsAbs(cfgName) {
			cfgName = filepath.Join(curDir, cfgName)
		}
		if !fileExist(cfgName) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, cfgName)
		}
		return cfgName, nil
	}
	return findConfigUpward(curDir)
}

func findConfigUpward(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, DefaultConfigRelPath)
		if fileExist(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: searched %s from %s", ErrConfigNotFound, DefaultConfigRelPath, startDir)
		}
		dir = parent
	}
}

// Load 读取配置并按 mapstructure 标签解码成 T。
// onChange 非空时监听文件变更，每次变更解码出一份新的 T 交给回调，不修改已返回的值。
func Load[T any](cfgName string, onChange func(*T, error)) (*T, error) {
	path, err := Resolve(cfgName)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	out, err := decode[T](v)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if onChange != nil {
		v.OnConfigChange(func(fsnotify.Event) {
			next, err := decode[T](v)
			onChange(next, err)
		})
		v.WatchConfig()
	}
	return out, nil
}

func decode[T any](v *viper.Viper) (*T, error) {
	var out T
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&out, hook); err != nil {
		return nil, err
	}
	return &out, nil
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
