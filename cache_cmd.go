package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/mordoo/internal/cache"
	"github.com/dgnsrekt/mordoo/internal/reading"
)

const dateLayout = "2006-01-02"

var (
	keyFlags struct {
		sign, secondSign, animal string
		period                   string
		date, birthDate          string
		name, question           string
		spread, topic            string
	}
	putPeriod string
	putTTL    time.Duration
	ttlAt     string

	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain cached readings",
		Long: paragraph(fmt.Sprintf("\nCached readings live until the %s they cover ends: a daily horoscope expires at midnight, a weekly one on Sunday night.",
			keyword("period"))),
		Args: cobra.NoArgs,
	}

	cacheKeyCmd = &cobra.Command{
		Use:   "key KIND",
		Short: "Print the cache key for a reading request",
		Example: paragraph("mordoo cache key horoscope --sign leo --period weekly\n" +
			"mordoo cache key tarot --spread three_card --question \"Will I move?\""),
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			kind, err := reading.ParseKind(args[0])
			if err != nil {
				return err
			}
			params, err := keyParams()
			if err != nil {
				return err
			}
			fmt.Println(cache.GenerateKey(kind, params))
			return nil
		},
	}

	cacheGetCmd = &cobra.Command{
		Use:   "get NAMESPACE KEY",
		Short: "Print a cached payload",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
			data, ok := a.cache.Get(args[1], args[0])
			if !ok {
				return fmt.Errorf("no fresh entry for %s in %s", args[1], args[0])
			}

			var out bytes.Buffer
			if err := json.Indent(&out, data, "", "  "); err != nil {
				out.Reset()
				out.Write(data)
			}
			out.WriteByte('\n')
			_, err := out.WriteTo(os.Stdout)
			return err
		}),
	}

	cachePutCmd = &cobra.Command{
		Use:   "put NAMESPACE KEY FILE",
		Short: "Cache a JSON payload until the end of its period (- for stdin)",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
			data, err := readInput(args[2])
			if err != nil {
				return err
			}
			if !json.Valid(data) {
				return fmt.Errorf("%s does not contain valid JSON", args[2])
			}

			opts := cache.Options{Namespace: args[0], TTL: putTTL}
			if putTTL == 0 {
				period, err := reading.ParsePeriod(putPeriod)
				if err != nil {
					return err
				}
				opts.TTL = cache.TTLFor(period, time.Now())
			}

			warnUnavailable(a)
			a.cache.Set(args[1], json.RawMessage(data), opts)
			if !a.cache.IsValid(args[1], args[0]) {
				return errors.New("entry was not stored, see the log for details")
			}
			now := time.Now()
			fmt.Printf("Cached %s, expires %s\n", keyword(args[1]), humanize.RelTime(now, now.Add(opts.TTL), "ago", "from now"))
			return nil
		}),
	}

	cacheSweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired and unreadable entries",
		Args:  cobra.NoArgs,
		RunE: withApp(func(a *app, _ *cobra.Command, _ []string) error {
			n := a.cache.ClearExpired()
			fmt.Printf("Removed %s\n", humanize.Comma(int64(n))+" "+plural(n, "entry", "entries"))
			return nil
		}),
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear NAMESPACE",
		Short: "Remove every entry in a namespace, such as horoscope",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(a *app, _ *cobra.Command, args []string) error {
			n := a.cache.ClearByNamespace(args[0])
			fmt.Printf("Removed %d %s from %s\n", n, plural(n, "entry", "entries"), args[0])
			return nil
		}),
	}

	cacheTTLCmd = &cobra.Command{
		Use:   "ttl PERIOD",
		Short: "Show when a reading cached now for PERIOD would expire",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			period, err := reading.ParsePeriod(args[0])
			if err != nil {
				return err
			}

			at := time.Now()
			if ttlAt != "" {
				if at, err = time.ParseInLocation(time.DateTime, ttlAt, time.Local); err != nil {
					return fmt.Errorf("invalid --at time: %w", err)
				}
			}

			ttl := cache.TTLFor(period, at)
			fmt.Printf("%s %s\n", label("expires"), at.Add(ttl).Format("Mon 2006-01-02 15:04:05.000 MST"))
			fmt.Printf("%s %s (%s)\n", label("ttl    "), ttl.Round(time.Millisecond), humanize.RelTime(at, at.Add(ttl), "", "from now"))
			return nil
		},
	}
)

func init() {
	f := cacheKeyCmd.Flags()
	f.StringVar(&keyFlags.sign, "sign", "", "zodiac sign")
	f.StringVar(&keyFlags.secondSign, "second-sign", "", "partner's zodiac sign")
	f.StringVar(&keyFlags.animal, "animal", "", "chinese zodiac animal")
	f.StringVar(&keyFlags.period, "period", "daily", "daily, weekly, monthly or yearly")
	f.StringVar(&keyFlags.date, "date", "", "reading date as YYYY-MM-DD (default today)")
	f.StringVar(&keyFlags.birthDate, "birth-date", "", "birth date as YYYY-MM-DD")
	f.StringVar(&keyFlags.name, "name", "", "full name")
	f.StringVar(&keyFlags.question, "question", "", "question asked")
	f.StringVar(&keyFlags.spread, "spread", "", "tarot spread")
	f.StringVar(&keyFlags.topic, "topic", "", "specialized reading topic")

	cachePutCmd.Flags().StringVar(&putPeriod, "period", "daily", "period the payload covers")
	cachePutCmd.Flags().DurationVar(&putTTL, "ttl", 0, "explicit time to live, overrides --period")
	cacheTTLCmd.Flags().StringVar(&ttlAt, "at", "", `compute from this local time ("2006-01-02 15:04:05")`)

	cacheCmd.AddCommand(cacheKeyCmd, cacheGetCmd, cachePutCmd, cacheSweepCmd, cacheClearCmd, cacheTTLCmd)
}

func keyParams() (cache.KeyParams, error) {
	period, err := reading.ParsePeriod(keyFlags.period)
	if err != nil {
		return cache.KeyParams{}, err
	}

	date := time.Now()
	if keyFlags.date != "" {
		if date, err = time.ParseInLocation(dateLayout, keyFlags.date, time.Local); err != nil {
			return cache.KeyParams{}, fmt.Errorf("invalid --date: %w", err)
		}
	}

	var birth time.Time
	if keyFlags.birthDate != "" {
		if birth, err = time.ParseInLocation(dateLayout, keyFlags.birthDate, time.Local); err != nil {
			return cache.KeyParams{}, fmt.Errorf("invalid --birth-date: %w", err)
		}
	}

	return cache.KeyParams{
		Sign:       keyFlags.sign,
		SecondSign: keyFlags.secondSign,
		Animal:     keyFlags.animal,
		Period:     period,
		Date:       date,
		BirthDate:  birth,
		Name:       keyFlags.name,
		Question:   keyFlags.question,
		Spread:     keyFlags.spread,
		Topic:      keyFlags.topic,
	}, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
