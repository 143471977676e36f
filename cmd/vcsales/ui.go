package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/client"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/negotiation"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/quarter"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func renderSheet(sheet character.Sheet) {
	accent.Printf("\n== CHARACTER: %s ==\n", sheet.Name)
	fmt.Printf("Element: %s   Spirit: %s   Sex: %s\n", sheet.Element, sheet.Spirit, sheet.Sex)
	fmt.Printf("Rolled against block %d\n\n", sheet.Verification.BlockHeight)
	for i, line := range sheet.Stats {
		fmt.Printf("%-4s %2d (%+d)  dice %v\n", strings.ToUpper(character.Stat(i).String()), line.Total, line.Modifier, line.Dice)
	}
}

func renderAssignment(res quarter.AssignmentResult) {
	accent.Println("\n== ASSIGNMENT ==")
	fmt.Printf("Territory: %s (d6=%d)\n", res.Territory, res.Roll)
	fmt.Printf("Key roll:  %d\n", res.KeyRoll)
}

func renderTrip(res quarter.TripResult) {
	accent.Println("\n== BUSINESS TRIP ==")
	fmt.Printf("Transport: %s, fare %s\n", res.Choice, formatMoney(res.Cost))
	renderEvent(res.Journey)
	renderEvent(res.Drive)
	renderEvent(res.Lucky)
	fmt.Printf("Money: %s\n", formatMoney(res.Money))
}

func renderEvent(ev quarter.EventOutcome) {
	fmt.Printf("%-8s d6=%d  %-26s %s\n", ev.Label, ev.Roll, ev.Name, colorizeDelta(ev.Money))
	if ev.Granted != nil {
		printInfo("  granted: " + ev.Granted.Description)
	}
}

func renderClient(slot string, c client.Client) {
	accent.Printf("\n== NEGOTIATION: %s ==\n", strings.ToUpper(slot))
	fmt.Printf("Client:     %s (%s, %s stakes)\n", c.Name, c.Territory, c.Stakes)
	fmt.Printf("Budget:     %s\n", formatMoney(c.Budget))
	fmt.Printf("Resistance: %d   Patience: %d\n", c.Resistance, c.Patience)
}

func renderRound(res quarter.NegotiateResult) {
	out := res.Outcome
	label := fmt.Sprintf("  r%-2d %-8s", out.Round, out.Action)
	switch {
	case out.Pitch != nil:
		verdict := danger.Sprint("resisted")
		if out.Pitch.Success {
			verdict = success.Sprint("landed " + formatMoney(out.Pitch.Value))
		}
		fmt.Printf("%s d20=%d%+d=%d vs %d  %s\n", label, out.Pitch.Roll, out.Pitch.Modifier, out.Pitch.Total, out.Pitch.Resistance, verdict)
	case out.Ability != nil:
		fmt.Printf("%s spirit %s", label, out.Ability.Spirit)
		if out.Ability.Money > 0 {
			fmt.Printf("  %s", colorizeDelta(out.Ability.Money))
		}
		fmt.Println()
		if out.Ability.Grant != nil {
			printInfo("       granted: " + out.Ability.Grant.Description)
		}
	default:
		fmt.Println(label)
	}
	if out.Body != nil {
		read := out.Body.Read.String()
		if out.Body.Calmed {
			read += ", calmed"
		}
		fmt.Printf("       body d8=%d read=%s\n", out.Body.Roll, read)
	}
	fmt.Printf("       deal %s  patience %d\n", formatMoney(out.DealValue), out.Patience)
	if !res.Concluded {
		return
	}
	switch out.Status {
	case negotiation.StatusClosed:
		printSuccess(fmt.Sprintf("  Closed for %s; credited %s.", formatMoney(out.Payout), formatMoney(res.Credited)))
	case negotiation.StatusLost:
		printError("  Lost the deal: the client walked away.")
	}
	if res.Penalty > 0 {
		printError(fmt.Sprintf("  All-in penalty: %s", colorizeDelta(-res.Penalty)))
	}
	fmt.Printf("  Money: %s\n", formatMoney(res.Money))
}

func renderCrossroads(res quarter.CrossroadsResult) {
	accent.Println("\n== CROSSROADS ==")
	verdict := danger.Sprint("failed")
	if res.Success {
		verdict = success.Sprint("succeeded")
	}
	fmt.Printf("%s on %s: d20=%d%+d=%d vs DC %d, %s\n", res.Choice, res.Stat, res.Roll, res.Modifier, res.Total, res.DC, verdict)
	if res.Spent > 0 {
		fmt.Printf("Spent: %s\n", formatMoney(res.Spent))
	}
	fmt.Printf("Delta: %s\n", colorizeDelta(res.Delta))
	if res.Granted != nil {
		printInfo("granted: " + res.Granted.Description)
	}
}

func renderStrategy(res quarter.StrategyResult) {
	accent.Println("\n== VP MEETING ==")
	fmt.Printf("Strategy: %s (whale payout %d%%)\n", res.Strategy, res.MultiplierPercent)
	if res.LegendaryUnlocked {
		printWarn("Legendary tier unlocked; a zero-pay whale now draws the penalty.")
	}
}

func renderAdvance(adv quarter.AdvanceResult) {
	line := fmt.Sprintf("-- %s to %s", adv.From, adv.To)
	if adv.Income != 0 {
		line += fmt.Sprintf("  (element income %s)", colorizeDelta(adv.Income))
	}
	neutral.Println(line)
}

func renderTier(res quarter.TierResult, keyRoll int, territory client.Territory) {
	accent.Println("\n== QUARTER END ==")
	fmt.Printf("Territory:      %s\n", territory)
	fmt.Printf("Key roll:       %d\n", keyRoll)
	fmt.Printf("Starting money: %s\n", formatMoney(res.StartingMoney))
	fmt.Printf("Final money:    %s\n", formatMoney(res.Money))
	fmt.Printf("Ratio:          %.2fx\n", res.Ratio)
	line := fmt.Sprintf("Tier:           %s", res.Tier)
	switch {
	case res.Tier.Persistable():
		success.Println(line)
	case res.Tier == quarter.TierFired:
		danger.Println(line)
	default:
		neutral.Println(line)
	}
}

func renderSeedPairs(pairs []fairroll.SeedPair) {
	accent.Println("\n== PROVABLY FAIR ==")
	for i, p := range pairs {
		fmt.Printf("#%d height %d\n", i+1, p.BlockHeight)
		fmt.Printf("   block %s\n", p.BlockHash)
		fmt.Printf("   seed  %s\n", p.ClientSeed)
	}
	printInfo("Key is SHA-256 of block:seed; each roll is HMAC-SHA256(key, label) mod sides.")
}

func formatMoney(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "$" + comma(v)
}

func colorizeDelta(v int64) string {
	switch {
	case v > 0:
		return success.Sprint("+" + formatMoney(v))
	case v < 0:
		return danger.Sprint(formatMoney(v))
	default:
		return neutral.Sprint(formatMoney(0))
	}
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
