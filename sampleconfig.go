package main

// ConfigFileContents is a commented example configuration file. A copy is
// written to the configured home directory the first time the disburser
// runs without a config file already present.
const ConfigFileContents = `[Application Options]
; ------------------------------------------------------------------------
; Debug settings
; ------------------------------------------------------------------------
; Logging level for all subsystems {trace, debug, info, warn, error, critical}.
; You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set
; the level per subsystem. Use --debuglevel=show to list them.
; debuglevel=info

; ------------------------------------------------------------------------
; Pool Gateway settings
; ------------------------------------------------------------------------
; pool.api_base_url=https://pool.example.com
; pool.pool_id=main
; pool.api_key=
; pool.request_timeout_s=30

; ------------------------------------------------------------------------
; Chain Gateway settings
; ------------------------------------------------------------------------
; chain.rpc_url=http://127.0.0.1:8332
; chain.rpc_user=
; chain.rpc_password=
; chain.rpc_timeout_s=30
; chain.wallet_name=disburser
; chain.change_address=
; chain.fee_per_byte=0.00001
; chain.min_confirmations=1
; chain.use_wallet_signing=true

; ------------------------------------------------------------------------
; Automation settings
; ------------------------------------------------------------------------
; automation.enabled=false
; automation.batch_size=100
; automation.block_period=20
; automation.poll_interval_s=60
; automation.min_balance=0

; ------------------------------------------------------------------------
; Journal settings
; ------------------------------------------------------------------------
; journal.path=
; faillog.path=
`

// writeSampleConfigFile writes ConfigFileContents to path if it does not
// already exist.
func writeSampleConfigFile(path string) error {
	return writeFileIfAbsent(path, []byte(ConfigFileContents), 0600)
}
