package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-escrow/identity"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ledgerBuilder struct {
	runtimeConfig     Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	persistenceClient any
	repositoryFactory any
	orderStore        OrderStore
	notificationStore NotificationStore
	assetTransfer     AssetTransfer
	converter         Converter
	policy            AuthorizationPolicy
}

type Option func(*ledgerBuilder)

func WithLogger(logger Logger) Option {
	return func(b *ledgerBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *ledgerBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *ledgerBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *ledgerBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *ledgerBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *ledgerBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *ledgerBuilder) {
		b.optionsResolver = resolver
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *ledgerBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *ledgerBuilder) {
		b.repositoryFactory = factory
	}
}

func WithOrderStore(store OrderStore) Option {
	return func(b *ledgerBuilder) {
		b.orderStore = store
	}
}

func WithNotificationStore(store NotificationStore) Option {
	return func(b *ledgerBuilder) {
		b.notificationStore = store
	}
}

func WithAssetTransfer(transfer AssetTransfer) Option {
	return func(b *ledgerBuilder) {
		b.assetTransfer = transfer
	}
}

func WithConverter(converter Converter) Option {
	return func(b *ledgerBuilder) {
		b.converter = converter
	}
}

func WithAuthorizationPolicy(policy AuthorizationPolicy) Option {
	return func(b *ledgerBuilder) {
		b.policy = policy
	}
}

func defaultLedgerBuilder(runtime Config) ledgerBuilder {
	loggerProvider, logger := glog.Resolve("escrow", nil, nil)
	return ledgerBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return escrowErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.Owner) != "" {
		layer["owner"] = cfg.Owner
	}
	if includeZero || strings.TrimSpace(cfg.SettlementAuthority) != "" {
		layer["settlement_authority"] = cfg.SettlementAuthority
	}
	if includeZero || strings.TrimSpace(cfg.Treasury) != "" {
		layer["treasury"] = cfg.Treasury
	}
	if includeZero || strings.TrimSpace(cfg.SettlementAsset) != "" {
		layer["settlement_asset"] = cfg.SettlementAsset
	}
	if includeZero || cfg.FeeBasisPoints > 0 {
		layer["fee_basis_points"] = cfg.FeeBasisPoints
	}
	if includeZero || cfg.ToleranceBasisPoints > 0 {
		layer["tolerance_basis_points"] = cfg.ToleranceBasisPoints
	}
	if includeZero || len(cfg.SupportedAssets) > 0 {
		layer["supported_assets"] = append([]string(nil), cfg.SupportedAssets...)
	}
	return layer
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}

var _ AuthorizationPolicy = identity.StaticPolicy{}
