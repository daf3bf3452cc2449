// Command photoscan runs text detection over photo files and prints the
// matches, optionally writing annotated copies.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/iamethanf20-hub/seeklens/internal/detect"
	"github.com/iamethanf20-hub/seeklens/internal/photo"
	"github.com/iamethanf20-hub/seeklens/internal/recog"
	"github.com/iamethanf20-hub/seeklens/internal/remote"
	"github.com/iamethanf20-hub/seeklens/internal/version"
	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
)

var (
	query         string
	matchMode     string
	granularity   string
	languages     []string
	minConfidence float64
	maxEdge       int
	annotateDir   string
	showAll       bool
	remoteURL     string
)

func main() {
	root := &cobra.Command{
		Use:   "photoscan [flags] photo...",
		Short: "Find text in photos",
		Long: `photoscan runs the same recognize-and-match path the live viewfinder
uses, against photo files instead of camera frames.`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    run,
		Version: version.String(),

		SilenceUsage: true,
	}

	root.Flags().StringVarP(&query, "query", "q", "", "text to search for (empty matches everything)")
	root.Flags().StringVar(&matchMode, "mode", "contains", "match mode: contains or exact")
	root.Flags().StringVar(&granularity, "granularity", "word", "match granularity: word or line")
	root.Flags().StringSliceVarP(&languages, "lang", "l", []string{"eng"}, "recognition languages")
	root.Flags().Float64Var(&minConfidence, "min-confidence", 0.5, "drop detections below this confidence")
	root.Flags().IntVar(&maxEdge, "max-edge", 2048, "downscale photos whose long edge exceeds this (0 disables)")
	root.Flags().StringVar(&annotateDir, "annotate", "", "write annotated copies into this directory")
	root.Flags().BoolVar(&showAll, "all", false, "print below-threshold detections too")
	root.Flags().StringVar(&remoteURL, "remote", "", "detection service base URL; replaces on-device recognition")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := buildMatchConfig()
	if err != nil {
		return err
	}

	var scan func(context.Context, string) ([]detect.Detection, error)
	if remoteURL != "" {
		client := remote.NewClient(remoteURL, 30*time.Second)
		scan = func(ctx context.Context, path string) ([]detect.Detection, error) {
			return scanRemote(ctx, client, path, cfg)
		}
	} else {
		engine, err := recog.NewEngine()
		if err != nil {
			return fmt.Errorf("cannot create recognition engine: %w", err)
		}
		defer engine.Close()

		opts := recog.Options{
			Languages: languages,
			Accuracy:  recog.AccuracyAccurate,
		}
		scan = func(ctx context.Context, path string) ([]detect.Detection, error) {
			result, err := photo.Scan(ctx, engine, path, cfg, opts, maxEdge)
			if err != nil {
				return nil, err
			}
			return result.Detections, nil
		}
	}

	if annotateDir != "" {
		if err := os.MkdirAll(annotateDir, 0o755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}

	ctx := cmd.Context()
	failures := 0
	for _, path := range args {
		if err := scanOne(ctx, scan, path); err != nil {
			color.Red("%s: %v", path, err)
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d photos failed", failures, len(args))
	}
	return nil
}

// scanRemote sends the photo to the detection service and filters the
// response with the same query the on-device path uses.
func scanRemote(ctx context.Context, client *remote.Client, path string, cfg detect.MatchConfig) ([]detect.Detection, error) {
	img, err := photo.Load(path, maxEdge)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("cannot encode %s: %w", path, err)
	}

	resp, err := client.Detect(ctx, buf.Bytes())
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	all := remote.ToDetections(resp, geometry.NewSize(float64(b.Dx()), float64(b.Dy())))
	out := all[:0]
	for _, d := range all {
		if detect.Matches(d.Text, cfg.Query, cfg.Mode) {
			out = append(out, d)
		}
	}
	return out, nil
}

func buildMatchConfig() (detect.MatchConfig, error) {
	cfg := detect.MatchConfig{Query: query}

	switch matchMode {
	case "contains":
		cfg.Mode = detect.MatchContains
	case "exact":
		cfg.Mode = detect.MatchExact
	default:
		return cfg, fmt.Errorf("unknown match mode %q", matchMode)
	}

	switch granularity {
	case "word":
		cfg.Granularity = detect.GranularityWord
	case "line":
		cfg.Granularity = detect.GranularityLine
	default:
		return cfg, fmt.Errorf("unknown granularity %q", granularity)
	}
	return cfg, nil
}

func scanOne(ctx context.Context, scan func(context.Context, string) ([]detect.Detection, error), path string) error {
	dets, err := scan(ctx, path)
	if err != nil {
		return err
	}

	header := color.New(color.Bold)
	header.Println(path)

	printed := 0
	for _, d := range dets {
		if d.Confidence < minConfidence && !showAll {
			continue
		}
		printDetection(d, d.Confidence >= minConfidence)
		printed++
	}
	if printed == 0 {
		color.Yellow("  no matches")
	}

	if annotateDir != "" && printed > 0 {
		img, err := photo.Load(path, maxEdge)
		if err != nil {
			return err
		}
		dst := filepath.Join(annotateDir, annotatedName(path))
		if err := photo.SaveAnnotated(img, dets, minConfidence, dst); err != nil {
			return err
		}
		fmt.Printf("  annotated copy: %s\n", dst)
	}
	return nil
}

func printDetection(d detect.Detection, aboveThreshold bool) {
	confColor := color.New(color.FgGreen)
	switch {
	case !aboveThreshold:
		confColor = color.New(color.FgHiBlack)
	case d.Confidence < 0.75:
		confColor = color.New(color.FgYellow)
	}

	fmt.Printf("  %-40q ", d.Text)
	confColor.Printf("%5.1f%% ", d.Confidence*100)
	fmt.Printf(" box=(%.3f, %.3f) %.3fx%.3f\n", d.Box.X, d.Box.Y, d.Box.Width, d.Box.Height)
}

func annotatedName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_annotated" + ext
}
