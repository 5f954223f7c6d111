package telegram

import (
	"sol_cycle/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data
const (
	cbStartCycles = "start_cycles"
	cbStopCycles  = "stop_cycles"
	cbStatus      = "status"
	cbSettings    = "settings"
	cbShowWallet  = "show_wallet"
	cbHistory     = "history"
	cbHelp        = "help"
	cbBackToMain  = "back_to_main"
	cbCopyWallet  = "copy_wallet"

	cbSetBuyAmount     = "set_buy_amount"
	cbSetFees          = "set_fees"
	cbSetSlippage      = "set_slippage"
	cbSetCycles        = "set_number_of_cycles"
	cbSetMaxBuys       = "set_max_simultaneous_buys"
	cbSetMaxSells      = "set_max_simultaneous_sells"
	cbSetInterval      = "set_interval_between_actions"
	cbSetCycleInterval = "set_cycle_interval"
	cbSetInitialDelay  = "set_initial_delay"
	cbSetTokenAddress  = "set_token_address"
)

// settingPrompts maps a settings button to the field it edits and the
// prompt asking for the new value.
var settingPrompts = map[string]struct {
	field  domain.Field
	prompt string
}{
	cbSetBuyAmount:     {domain.FieldBuyAmount, "Please send the buy amount in SOL (e.g., 0.0105)"},
	cbSetFees:          {domain.FieldFeeAmount, "Please send the fee amount in SOL (e.g., 0.0005)"},
	cbSetSlippage:      {domain.FieldSlippageBps, "Please send the slippage in percent (e.g., 2)"},
	cbSetCycles:        {domain.FieldCycleCount, "Please send the number of cycles (e.g., 3)"},
	cbSetMaxBuys:       {domain.FieldMaxBuys, "Please send the maximum number of simultaneous buys (e.g., 1)"},
	cbSetMaxSells:      {domain.FieldMaxSells, "Please send the maximum number of simultaneous sells (e.g., 1)"},
	cbSetInterval:      {domain.FieldInterActionDelay, "Please send the interval between actions in seconds (e.g., 15)"},
	cbSetCycleInterval: {domain.FieldInterCycleDelay, "Please send the interval between cycles in seconds (e.g., 30)"},
	cbSetInitialDelay:  {domain.FieldInitialDelay, "Please send the initial wait before the first cycle in seconds (e.g., 60)"},
	cbSetTokenAddress:  {domain.FieldTargetAsset, "Please send the new token address (e.g., 6TmL8DiBTvCgfwsfaR5WhSyEfaNV54qQKtpjgQS6pump)"},
}

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Start Buy/Sell Cycles", cbStartCycles),
			tgbotapi.NewInlineKeyboardButtonData("🛑 Stop Cycles", cbStopCycles),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Status", cbStatus),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", cbSettings),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👛 Show Wallet", cbShowWallet),
			tgbotapi.NewInlineKeyboardButtonData("📜 History", cbHistory),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Help", cbHelp),
		),
	)
}

func settingsMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Set Buy Amount", cbSetBuyAmount),
			tgbotapi.NewInlineKeyboardButtonData("💰 Set Fees", cbSetFees),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 Set Slippage", cbSetSlippage),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Set Number of Cycles", cbSetCycles),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Set Max Simultaneous Buys", cbSetMaxBuys),
			tgbotapi.NewInlineKeyboardButtonData("📉 Set Max Simultaneous Sells", cbSetMaxSells),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏱ Set Interval Between Actions", cbSetInterval),
			tgbotapi.NewInlineKeyboardButtonData("⏳ Set Cycle Interval", cbSetCycleInterval),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚀 Set Initial Wait", cbSetInitialDelay),
			tgbotapi.NewInlineKeyboardButtonData("🏷️ Set Token Address", cbSetTokenAddress),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back to Main Menu", cbBackToMain),
		),
	)
}

func walletKeyboard(address string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(address, cbCopyWallet),
		),
	)
}
