// Package config contains utilities for loading configs
package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/go-playground/validator/v10"
)

const (
	defaultConfigFilePath = "/data/recipes.yaml"
	configPathEnv         = "RECIPES_CONFIG"
	appSecretBytes        = 32
	appSecretFilePerms    = 0o600
)

const (
	EnvProd = "PROD"
	EnvDev  = "DEV"
)

const (
	DefaultAPIBaseURL        = "http://localhost:8080/api"
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultUploadConcurrency = 4
	DefaultSlotTTL           = 15 * time.Minute
)

type StorageProvider string

const (
	StorageLocal  StorageProvider = "local"
	StorageMinio  StorageProvider = "minio"
	StorageS3     StorageProvider = "s3"
	StorageGarage StorageProvider = "garage"
)

func (s StorageProvider) Validate() error {
	switch s {
	case StorageLocal, StorageMinio, StorageS3, StorageGarage:
		return nil
	}
	return fmt.Errorf("unknown storage provider: %q", s)
}

type AppSecretValue string

func (a *AppSecretValue) Validate() error {
	if a == nil {
		return errors.New("secret should not be nil")
	}
	if len([]byte(*a)) < appSecretBytes {
		return errors.New("secret should be at least 32 bytes")
	}
	return nil
}

func splitFieldList(param string) []string {
	// "A,B,C" or "A B C"
	param = strings.ReplaceAll(param, " ", ",")
	parts := strings.Split(param, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// allOrNothing implements a cross-field validator for go-playground/validator.
//
// The validator succeeds only if either all listed fields have zero values
// or all listed fields have non-zero values. It must be attached to a
// placeholder field and inspects the parent struct. Field names are given as
// a comma- or space-separated list (e.g. `validate:"allOrNothing=A,B,C"`).
//
// A nil pointer or interface is treated as a zero value. A non-nil one is
// dereferenced until a concrete value is reached.
//
// A missing parent, a non-struct parent, an unknown field name or an empty
// field list fail validation to signal misconfiguration.
func allOrNothing(fl validator.FieldLevel) bool {
	parent := fl.Parent()
	if parent.Kind() == reflect.Pointer {
		if parent.IsNil() {
			return true // nothing to validate
		}
		parent = parent.Elem()
	}
	if parent.Kind() != reflect.Struct {
		return false
	}

	names := splitFieldList(fl.Param())
	if len(names) == 0 {
		return false
	}

	hasZero := false
	hasNonZero := false

	for _, name := range names {
		f := parent.FieldByName(name)
		if !f.IsValid() {
			return false // field name typo / not found
		}

		for (f.Kind() == reflect.Pointer || f.Kind() == reflect.Interface) && !f.IsNil() {
			f = f.Elem()
		}

		if f.IsZero() {
			hasZero = true
		} else {
			hasNonZero = true
		}

		if hasZero && hasNonZero {
			return false
		}
	}

	return true
}

func registerAllOrNothing(v *validator.Validate) {
	_ = v.RegisterValidation("allOrNothing", allOrNothing)
}

func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors) //nolint:errorlint
	if !ok {
		return err
	}

	for _, e := range validationErrs {
		if e.Tag() == "allOrNothing" {
			// "Config.Auth.Validate" -> "Auth"
			namespace := e.Namespace()
			parts := strings.Split(namespace, ".")
			var structName string
			//nolint:mnd
			if len(parts) >= 2 {
				structName = parts[len(parts)-2]
			}

			var fields string
			switch structName {
			case "Auth":
				fields = "RefreshToken and RefreshURL"
			case "Storage":
				fields = "AccessKey and SecretKey"
			case "Garage":
				fields = "AdminHost and AdminToken"
			default:
				fields = "all related fields"
			}

			return fmt.Errorf(
				"%s configuration is incomplete: either all fields must be set (%s) or all must be empty",
				structName, fields)
		}
	}

	return err
}

// HTTP tunes outgoing requests. RetryMax only applies to storage admin
// calls; publishing requests are never retried.
type HTTP struct {
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
	RetryMax int           `yaml:"retry_max" validate:"gte=0,lte=10"`
}

// Auth holds the bearer credentials used by the client. A refresh token
// needs the URL it is redeemed at.
type Auth struct {
	AccessToken  string `yaml:"access_token"`
	RefreshToken string `yaml:"refresh_token"`
	RefreshURL   string `yaml:"refresh_url" validate:"omitempty,url"`

	Validate struct{} `yaml:"-" validate:"allOrNothing=RefreshToken RefreshURL"`
}

type AppSecret struct {
	Value   *AppSecretValue `yaml:"value" validate:"omitempty,validateFn"`
	Path    string          `yaml:"path" validate:"omitempty,filepath"`
	Version string          `yaml:"version"`
}

type Storage struct {
	Provider  StorageProvider `yaml:"provider" validate:"validateFn"`
	Bucket    string          `yaml:"bucket" validate:"required"`
	Endpoint  string          `yaml:"endpoint" validate:"omitempty,hostname_port"`
	Region    string          `yaml:"region"`
	AccessKey string          `yaml:"access_key"`
	SecretKey string          `yaml:"secret_key"`
	UseSSL    bool            `yaml:"use_ssl"`
	SlotTTL   time.Duration   `yaml:"slot_ttl" validate:"gt=0"`

	Validate struct{} `yaml:"-" validate:"allOrNothing=AccessKey SecretKey"`
}

type Garage struct {
	AdminHost  string `yaml:"admin_host" validate:"omitempty,hostname_port"`
	AdminToken string `yaml:"admin_token"`
	Zone       string `yaml:"zone"`
	Capacity   int64  `yaml:"capacity" validate:"gte=0"`

	Validate struct{} `yaml:"-" validate:"allOrNothing=AdminHost AdminToken"`
}

type Fileserver struct {
	Volume    string `yaml:"volume"`
	URLPrefix string `yaml:"url_prefix"`
}

// Devserver configures the reference recipe backend.
type Devserver struct {
	Addr       string     `yaml:"addr" validate:"required,hostname_port"`
	HostOrigin string     `yaml:"host_origin" validate:"url"`
	AppSecret  AppSecret  `yaml:"app_secret"`
	Storage    Storage    `yaml:"storage"`
	Garage     Garage     `yaml:"garage"`
	Fileserver Fileserver `yaml:"fileserver"`
}

type Config struct {
	APIBaseURL        string    `yaml:"api_base_url" validate:"url"`
	Env               string    `yaml:"env" validate:"omitempty,oneof=DEV PROD"`
	LogLevel          string    `yaml:"log_level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	HTTP              HTTP      `yaml:"http"`
	UploadConcurrency int       `yaml:"upload_concurrency" validate:"gte=1,lte=32"`
	Auth              Auth      `yaml:"auth"`
	Devserver         Devserver `yaml:"devserver"`
}

func newAppSecret() (string, error) {
	token := make([]byte, appSecretBytes)
	if _, err := rand.Reader.Read(token); err != nil {
		return "", fmt.Errorf("creating app secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(token), nil
}

// LoadAppSecret fills Devserver.AppSecret.Value from its path, creating a
// new secret file on first use. Only the reference backend needs it.
func (c *Config) LoadAppSecret() error {
	return loadAppSecret(&c.Devserver.AppSecret)
}

func loadAppSecret(appSecret *AppSecret) error {
	if appSecret.Value != nil {
		return nil
	}

	var secret string
	if f1, err := os.Lstat(appSecret.Path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking secret path: %w", err)
		}

		file, err := os.OpenFile(appSecret.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, appSecretFilePerms)
		if err != nil {
			return fmt.Errorf("creating secret file: %w", err)
		}
		defer func() { _ = file.Close() }()

		secret, err = newAppSecret()
		if err != nil {
			return fmt.Errorf("generating new app secret: %w", err)
		}

		if _, err := file.WriteString(secret); err != nil {
			return fmt.Errorf("writing secret file: %w", err)
		}
	} else {
		if f1.IsDir() {
			return fmt.Errorf("expected file, got directory at %q", appSecret.Path)
		}
		data, err := os.ReadFile(appSecret.Path)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		secret = strings.TrimSpace(string(data))
	}
	val := AppSecretValue(secret)
	if err := val.Validate(); err != nil {
		return fmt.Errorf("secret at %q: %w", appSecret.Path, err)
	}
	appSecret.Value = &val
	return nil
}

func loadWithDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func applyDefaults(config *Config) {
	if config.APIBaseURL == "" {
		config.APIBaseURL = DefaultAPIBaseURL
	}
	if config.Env == "" {
		config.Env = EnvDev
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.HTTP.Timeout == 0 {
		config.HTTP.Timeout = DefaultHTTPTimeout
	}
	if config.UploadConcurrency == 0 {
		config.UploadConcurrency = DefaultUploadConcurrency
	}

	d := &config.Devserver
	if d.Addr == "" {
		d.Addr = "0.0.0.0:8080"
	}
	if d.HostOrigin == "" {
		d.HostOrigin = "http://localhost:8080"
	}
	if d.AppSecret.Path == "" {
		d.AppSecret.Path = "/data/secret"
	}
	if d.AppSecret.Version == "" {
		d.AppSecret.Version = "1"
	}
	if d.Storage.Provider == "" {
		d.Storage.Provider = StorageLocal
	}
	if d.Storage.Bucket == "" {
		d.Storage.Bucket = "recipe-images"
	}
	if d.Storage.Region == "" {
		d.Storage.Region = "us-east-1"
	}
	if d.Storage.SlotTTL == 0 {
		d.Storage.SlotTTL = DefaultSlotTTL
	}
	if d.Garage.Zone == "" {
		d.Garage.Zone = "dc1"
	}
	if d.Fileserver.Volume == "" {
		d.Fileserver.Volume = "/data/files"
	}
	if d.Fileserver.URLPrefix == "" {
		d.Fileserver.URLPrefix = "/files"
	}
}

func validate(config Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	registerAllOrNothing(v)
	if err := v.Struct(config); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := loadWithDefault(key, def)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (%q): %w", key, raw, err)
	}
	return d, nil
}

func parseInt(key, def string) (int, error) {
	raw := loadWithDefault(key, def)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (%q): %w", key, raw, err)
	}
	return n, nil
}

func loadConfigFromEnv() (Config, error) {
	conf := Config{
		APIBaseURL: loadWithDefault("API_BASE_URL", ""),
		Env:        loadWithDefault("ENV", EnvDev),
		LogLevel:   loadWithDefault("LOG_LEVEL", ""),
	}

	var err error
	if conf.HTTP.Timeout, err = parseDuration("HTTP_TIMEOUT", ""); err != nil {
		return conf, err
	}
	if conf.HTTP.RetryMax, err = parseInt("HTTP_RETRY_MAX", "0"); err != nil {
		return conf, err
	}
	if conf.UploadConcurrency, err = parseInt("UPLOAD_CONCURRENCY", ""); err != nil {
		return conf, err
	}

	// Auth
	conf.Auth = Auth{
		AccessToken:  loadWithDefault("ACCESS_TOKEN", ""),
		RefreshToken: loadWithDefault("REFRESH_TOKEN", ""),
		RefreshURL:   loadWithDefault("REFRESH_URL", ""),
	}

	// Devserver
	d := &conf.Devserver
	d.Addr = loadWithDefault("DEVSERVER_ADDR", "")
	d.HostOrigin = loadWithDefault("HOST_ORIGIN", "")
	d.AppSecret = AppSecret{
		Path:    loadWithDefault("APP_SECRET_PATH", ""),
		Version: loadWithDefault("APP_SECRET_VERSION", ""),
	}
	if v := AppSecretValue(loadWithDefault("APP_SECRET", "")); v != "" {
		d.AppSecret.Value = &v
	}

	d.Storage = Storage{
		Provider:  StorageProvider(loadWithDefault("STORAGE_PROVIDER", "")),
		Bucket:    loadWithDefault("STORAGE_BUCKET", ""),
		Endpoint:  loadWithDefault("STORAGE_ENDPOINT", ""),
		Region:    loadWithDefault("STORAGE_REGION", ""),
		AccessKey: loadWithDefault("STORAGE_ACCESS_KEY", ""),
		SecretKey: loadWithDefault("STORAGE_SECRET_KEY", ""),
	}
	useSSL := loadWithDefault("STORAGE_USE_SSL", "false")
	if b, err := strconv.ParseBool(useSSL); err != nil {
		return conf, fmt.Errorf("invalid STORAGE_USE_SSL (%q): %w", useSSL, err)
	} else {
		d.Storage.UseSSL = b
	}
	if d.Storage.SlotTTL, err = parseDuration("STORAGE_SLOT_TTL", ""); err != nil {
		return conf, err
	}

	d.Garage = Garage{
		AdminHost:  loadWithDefault("GARAGE_ADMIN_HOST", ""),
		AdminToken: loadWithDefault("GARAGE_ADMIN_TOKEN", ""),
		Zone:       loadWithDefault("GARAGE_ZONE", ""),
	}
	garageCapacity := loadWithDefault("GARAGE_CAPACITY", "0")
	if n, err := strconv.ParseInt(garageCapacity, 10, 64); err != nil {
		return conf, fmt.Errorf("invalid GARAGE_CAPACITY (%q): %w", garageCapacity, err)
	} else {
		d.Garage.Capacity = n
	}

	d.Fileserver = Fileserver{
		Volume:    loadWithDefault("FILESERVER_VOLUME", ""),
		URLPrefix: loadWithDefault("FILESERVER_URL_PREFIX", ""),
	}

	applyDefaults(&conf)
	if err := validate(conf); err != nil {
		return conf, err
	}
	return conf, nil
}

func loadConfigFromFile(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(contents, &config); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&config)
	if err := validate(config); err != nil {
		return Config{}, err
	}
	return config, nil
}

func configFileExists(path string) bool {
	f, err := os.Lstat(path)
	if err != nil {
		return false
	}

	return !f.IsDir()
}

// Path is the config file consulted by LoadConfig.
func Path() string {
	return loadWithDefault(configPathEnv, defaultConfigFilePath)
}

// LoadConfig reads the YAML config file if one exists and falls back to
// environment variables otherwise.
func LoadConfig() (Config, error) {
	if path := Path(); configFileExists(path) {
		return loadConfigFromFile(path)
	}

	return loadConfigFromEnv()
}
