package telegram

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"sol_cycle/internal/domain"
	"sol_cycle/internal/infra/swap"

	"github.com/dustin/go-humanize"
)

// maxMessageLen is the Telegram limit for one message, in characters.
const maxMessageLen = 4096

const helpText = `ℹ️ Commands
/start - open the main menu
/run - start the buy/sell cycles
/stop - stop after the current cycle
/status - balances, settings and run state
/settings - change run parameters
/wallet - show the trading wallet
/history [n] - last swap actions
/history run - swaps of the current or last run
/cancel - discard a pending setting input
/help - this message

A stop request is honored before the next cycle begins; the running cycle always completes.`

func formatStatus(s domain.StatusSnapshot) string {
	c := s.Config
	target := c.TargetAsset
	if target == "" {
		target = "(not set)"
	}

	var b strings.Builder
	b.WriteString("📊 Current status:\n")
	fmt.Fprintf(&b, "💸 SOL Balance: %s\n", s.QuoteBalance)
	fmt.Fprintf(&b, "💸 Token Balance: %s\n", s.TargetBalance)
	fmt.Fprintf(&b, "🔄 Estimated Transactions: %s\n", humanize.Comma(s.EstimatedTransactions))
	b.WriteString("⚙️ Current Settings\n")
	fmt.Fprintf(&b, "  🏷️ CA: %s\n", target)
	fmt.Fprintf(&b, "  🛒 Buy Amount: %s SOL\n", c.BuyAmount)
	fmt.Fprintf(&b, "  💰 Fees: %s SOL\n", c.FeeAmount)
	fmt.Fprintf(&b, "  📈 Slippage: %s%%\n", swap.BpsToPercent(c.SlippageBps))
	fmt.Fprintf(&b, "  🔁 Number of Cycles: %d\n", c.CycleCount)
	fmt.Fprintf(&b, "  🔄 Max Simultaneous Buys: %d\n", c.MaxSimultaneousBuys)
	fmt.Fprintf(&b, "  📉 Max Simultaneous Sells: %d\n", c.MaxSimultaneousSells)
	fmt.Fprintf(&b, "  ⏱ Interval Between Actions: %s\n", seconds(c.InterActionDelay))
	fmt.Fprintf(&b, "  ⏳ Cycle Interval: %s\n", seconds(c.InterCycleDelay))
	fmt.Fprintf(&b, "  🚀 Initial Wait: %s\n", seconds(c.InitialDelay))
	fmt.Fprintf(&b, "🚀 Running: %s (%s)\n", yesNo(s.State.Active()), s.State)
	fmt.Fprintf(&b, "📈 Swaps: %d ok / %d failed, %d cycles completed",
		s.SwapsSucceeded, s.SwapsFailed, s.CyclesCompleted)
	return b.String()
}

// formatSetting confirms an applied setting using the stored value.
func formatSetting(field domain.Field, c domain.RunConfig) string {
	switch field {
	case domain.FieldBuyAmount:
		return fmt.Sprintf("✅ Buy amount set to %s SOL.", c.BuyAmount)
	case domain.FieldFeeAmount:
		return fmt.Sprintf("✅ Fees set to %s SOL.", c.FeeAmount)
	case domain.FieldSlippageBps:
		return fmt.Sprintf("✅ Slippage set to %s%%.", swap.BpsToPercent(c.SlippageBps))
	case domain.FieldCycleCount:
		return fmt.Sprintf("✅ Number of cycles set to %d.", c.CycleCount)
	case domain.FieldMaxBuys:
		return fmt.Sprintf("✅ Maximum simultaneous buys set to %d.", c.MaxSimultaneousBuys)
	case domain.FieldMaxSells:
		return fmt.Sprintf("✅ Maximum simultaneous sells set to %d.", c.MaxSimultaneousSells)
	case domain.FieldInterActionDelay:
		return fmt.Sprintf("✅ Interval between actions set to %s.", seconds(c.InterActionDelay))
	case domain.FieldInterCycleDelay:
		return fmt.Sprintf("✅ Interval between cycles set to %s.", seconds(c.InterCycleDelay))
	case domain.FieldInitialDelay:
		return fmt.Sprintf("✅ Initial wait set to %s.", seconds(c.InitialDelay))
	case domain.FieldTargetAsset:
		return fmt.Sprintf("✅ Token address set to %s.", c.TargetAsset)
	}
	return "✅ Setting updated."
}

// formatHistory lists records under title. Entries that would push the
// message past maxMessageLen are dropped and counted instead.
func formatHistory(title string, records []domain.SwapRecord) string {
	if len(records) == 0 {
		return "📜 No swaps recorded yet."
	}

	var b strings.Builder
	b.WriteString(title)
	size := utf8.RuneCountInString(title)
	for i, r := range records {
		entry := formatRecord(r)
		n := utf8.RuneCountInString(entry)
		// leave room for the "and N more" trailer
		if size+n > maxMessageLen-40 {
			fmt.Fprintf(&b, "\n… and %d more", len(records)-i)
			break
		}
		b.WriteString(entry)
		size += n
	}
	return b.String()
}

func formatRecord(r domain.SwapRecord) string {
	mark := "✅"
	if r.Status != domain.SwapStatusConfirmed {
		mark = "⚠️"
	}
	s := fmt.Sprintf("\n%s #%d cycle %d %s %s (%s)", mark, r.ID, r.Cycle, r.Side, r.Amount, humanize.Time(r.CreatedAt))
	if r.TxID != "" {
		s += "\n   tx " + r.TxID
	}
	if r.Error != "" {
		s += "\n   " + r.Error
	}
	return s
}

func formatRunSummary(records []domain.SwapRecord) string {
	var ok, failed int
	for _, r := range records {
		if r.Status == domain.SwapStatusConfirmed {
			ok++
		} else {
			failed++
		}
	}
	return fmt.Sprintf("📈 %d swaps: %d ok / %d failed", len(records), ok, failed)
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%g seconds", d.Seconds())
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
