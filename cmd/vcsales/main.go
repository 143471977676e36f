package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	platformcmd "github.com/vdappdev2/vcharacter-sales/internal/platform/cmd"
	"github.com/vdappdev2/vcharacter-sales/internal/platform/config"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/negotiation"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/quarter"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/replay"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/server"
)

func main() {
	root := &cobra.Command{
		Use:          "vcsales",
		Short:        "vCharacter Sales server and provably-fair game tools",
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newCommitCmd(),
		newSimulateCmd(),
		newVerifyCmd(),
	)

	if err := root.Execute(); err != nil {
		config.Exitf("error: %v", err)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sales API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetPrefix("[SALES] ")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := server.LoadConfig()
			return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceSales, func(ctx context.Context) error {
				return server.Run(ctx, cfg)
			})
		},
	}
}

func newCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit",
		Short: "Generate a client seed and its SHA-256 commitment",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := fairroll.NewClientSeed()
			if err != nil {
				return err
			}
			commitment, err := fairroll.Commitment(seed)
			if err != nil {
				return err
			}
			accent.Println("\n== CLIENT SEED ==")
			fmt.Printf("Seed:       %s\n", seed)
			fmt.Printf("Commitment: %s\n", commitment)
			fmt.Println()
			printInfo("Publish the commitment before the target block is mined.")
			printInfo("Reveal the seed after; anyone can then recompute every roll.")
			return nil
		},
	}
}

func newSimulateCmd() *cobra.Command {
	var (
		travel     string
		crossroads string
		strategy   string
		rulesPath  string
		recordPath string
		height     uint64
	)
	cmd := &cobra.Command{
		Use:   "simulate [name]",
		Short: "Play a full offline quarter with local entropy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "Offline Seller"
			if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
				name = strings.TrimSpace(args[0])
			}
			travelChoice, err := quarter.ParseTravelChoice(travel)
			if err != nil {
				return err
			}
			crossroadsChoice, err := quarter.ParseCrossroadsChoice(crossroads)
			if err != nil {
				return err
			}
			strategyChoice, err := quarter.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			cfg := rules.Default()
			if rulesPath != "" {
				cfg, err = rules.LoadFile(rulesPath)
				if err != nil {
					return err
				}
			}

			game, err := simulateQuarter(name, height, cfg, travelChoice, crossroadsChoice, strategyChoice)
			if err != nil {
				return err
			}
			if recordPath != "" {
				if err := writeRecord(recordPath, game.Snapshot()); err != nil {
					return err
				}
				fmt.Println()
				printInfo("Record written to " + recordPath + "; audit it with `vcsales verify`.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&travel, "travel", "train", "travel choice: flight, train, or car")
	cmd.Flags().StringVar(&crossroads, "crossroads", "research", "crossroads choice: dinner, gift, or research")
	cmd.Flags().StringVar(&strategy, "strategy", "steady", "VP strategy: steady, bold, or all-in")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to a YAML rules override")
	cmd.Flags().StringVar(&recordPath, "record", "", "write the audit record JSON to this file")
	cmd.Flags().Uint64Var(&height, "height", 1000, "pretend block height for the local entropy")
	return cmd
}

// simulateQuarter drives one complete game against locally generated
// seed pairs, printing every phase as it resolves.
func simulateQuarter(name string, height uint64, cfg rules.Config, travel quarter.TravelChoice, crossroads quarter.CrossroadsChoice, strategy quarter.Strategy) (*quarter.Game, error) {
	verification, err := localPair(height)
	if err != nil {
		return nil, err
	}
	src, err := fairroll.NewSource(verification)
	if err != nil {
		return nil, err
	}
	sheet, err := character.RollSheet(src, name)
	if err != nil {
		return nil, err
	}
	renderSheet(sheet)

	game, err := quarter.NewGame(sheet, cfg)
	if err != nil {
		return nil, err
	}
	for i := 0; i < quarter.EntropyBundles; i++ {
		bundle, err := localPair(height + uint64(i) + 1)
		if err != nil {
			return nil, err
		}
		if _, err := game.SupplyEntropy(bundle); err != nil {
			return nil, err
		}
	}

	assignment, err := game.AssignTerritory()
	if err != nil {
		return nil, err
	}
	renderAssignment(assignment)
	if err := advance(game); err != nil {
		return nil, err
	}

	trip, err := game.ResolveTrip(travel)
	if err != nil {
		return nil, err
	}
	renderTrip(trip)
	if err := advance(game); err != nil {
		return nil, err
	}

	first, err := game.BeginFirstClient()
	if err != nil {
		return nil, err
	}
	renderClient("first client", first)
	if err := playEncounter(game, first.Patience, false); err != nil {
		return nil, err
	}
	if err := advance(game); err != nil {
		return nil, err
	}

	gambit, err := game.ResolveCrossroads(crossroads)
	if err != nil {
		return nil, err
	}
	renderCrossroads(gambit)
	if err := advance(game); err != nil {
		return nil, err
	}

	event, err := game.ResolveQuarterEvent()
	if err != nil {
		return nil, err
	}
	accent.Println("\n== QUARTER EVENT ==")
	renderEvent(event)
	if err := advance(game); err != nil {
		return nil, err
	}

	chosen, err := game.ChooseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	renderStrategy(chosen)
	if err := advance(game); err != nil {
		return nil, err
	}

	prep, err := game.ResolvePrep()
	if err != nil {
		return nil, err
	}
	accent.Println("\n== PREP ==")
	renderEvent(prep)
	if err := advance(game); err != nil {
		return nil, err
	}

	whale, err := game.BeginWhale()
	if err != nil {
		return nil, err
	}
	renderClient("whale", whale)
	if err := playEncounter(game, whale.Patience, true); err != nil {
		return nil, err
	}
	if err := advance(game); err != nil {
		return nil, err
	}

	tier, err := game.ComputeTier()
	if err != nil {
		return nil, err
	}
	renderTier(tier, game.KeyRoll(), game.Territory())
	renderSeedPairs(game.SeedPairs())
	return game, nil
}

// playEncounter runs the scripted table: invoke the spirit when asked,
// listen once, pitch while the client will still hear another round,
// and concede before patience runs dry. Conceding costs no patience,
// so the script always closes rather than losing the deal.
func playEncounter(game *quarter.Game, patience int, useAbility bool) error {
	if useAbility {
		res, err := game.Negotiate(negotiation.ActionAbility)
		if err != nil {
			return err
		}
		renderRound(res)
		// A concede ability closes the deal on the spot.
		if res.Concluded {
			return nil
		}
		patience = res.Outcome.Patience
	}
	listened := false
	for {
		var action negotiation.Action
		switch {
		case patience <= 1:
			action = negotiation.ActionConcede
		case !listened:
			action = negotiation.ActionListen
			listened = true
		default:
			action = negotiation.ActionPitch
		}
		res, err := game.Negotiate(action)
		if err != nil {
			return err
		}
		renderRound(res)
		if res.Concluded {
			return nil
		}
		patience = res.Outcome.Patience
	}
}

func advance(game *quarter.Game) error {
	adv, err := game.AdvancePhase()
	if err != nil {
		return err
	}
	renderAdvance(adv)
	return nil
}

func localPair(height uint64) (fairroll.SeedPair, error) {
	hash, err := fairroll.NewClientSeed()
	if err != nil {
		return fairroll.SeedPair{}, err
	}
	seed, err := fairroll.NewClientSeed()
	if err != nil {
		return fairroll.SeedPair{}, err
	}
	return fairroll.NewSeedPair(height, hash, seed)
}

func writeRecord(path string, rec quarter.Record) error {
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func newVerifyCmd() *cobra.Command {
	var rulesPath string
	cmd := &cobra.Command{
		Use:   "verify <record.json>",
		Short: "Replay a recorded quarter and audit the reported outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var rec quarter.Record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}

			cfg := rules.Default()
			if rulesPath != "" {
				cfg, err = rules.LoadFile(rulesPath)
				if err != nil {
					return err
				}
			}

			report, err := replay.Run(rec, cfg)
			if err != nil {
				return err
			}

			accent.Println("\n== AUDIT ==")
			fmt.Printf("Character:  %s\n", rec.Character.Name)
			fmt.Printf("Territory:  %s\n", rec.Territory)
			fmt.Printf("Tier:       %s\n", report.Tier)
			fmt.Printf("Money:      %s\n", formatMoney(report.Money))
			fmt.Printf("Key roll:   %d\n", report.KeyRoll)
			fmt.Printf("Rolls:      %d\n", report.Rolls)
			fmt.Println()
			if report.Clean() {
				printSuccess("Record verified: every roll re-derives from the revealed seeds.")
				return nil
			}
			printError(fmt.Sprintf("Record rejected: %d field(s) diverge from the replay.", len(report.Mismatches)))
			for _, m := range report.Mismatches {
				danger.Printf("  - %s\n", m)
			}
			return fmt.Errorf("verification failed")
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to the YAML rules override the game was played under")
	return cmd
}
