package core

var (
	_ SettlementLedger = (*Ledger)(nil)
	_ ConfigProvider   = (*CfgxConfigProvider)(nil)
	_ OptionsResolver  = GoOptionsResolver{}
	_ RawConfigLoader  = staticRawConfigLoader{}
)
