/*
 * main.go, part of combfold.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 */

// combfold assembles a multi-chain protein complex from a chain list
// and a pool of pairwise rigid-body transforms.
//
// Usage:
//
//	combfold [flags] <chainList> <transFilesPrefix> <transNumPerPair> <bestK> <restraintsFile>
//
// Writes <outputFileNamePrefix>.res and <outputFileNamePrefix>_clustered.res,
// and exits with a status code from the table in the design notes: 0 on
// success, 1 on an unclassified error, 2 on an input-parsing error, 3
// when no valid assembly was found, 4 on a constraint violation.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/rmera/combfold"
	"github.com/rmera/combfold/cluster"
	"github.com/rmera/combfold/config"
	"github.com/rmera/combfold/diag"
	"github.com/rmera/combfold/fold"
	"github.com/rmera/combfold/output"
	"github.com/rmera/combfold/ptransform"
	"github.com/rmera/combfold/restraint"
	"github.com/rmera/combfold/subunit"
	"github.com/rmera/combfold/superbb"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath                        = flag.String("config", "", "path to a JSON algorithm-constants file (default: built-in constants)")
		logPath                           = flag.String("log", "", "also write the run log to this file (default: stderr only)")
		workers                           = flag.Int("workers", 0, "worker goroutine count (default: 4)")
		timeout                           = flag.Duration("timeout", 0, "abort and report the best assembly found so far after this long (default: no limit)")
		maxResultPerResSet                = flag.Int("maxResultPerResSet", 0, "SuperBBs kept per distinct chain-slot identity at each band (default: bestK)")
		penetrationThr                    = flag.Float64("penetrationThr", -1.0, "max tolerated van der Waals penetration depth in Angstrom (negative disables this check)")
		restraintsRatio                   = flag.Float64("restraintsRatio", 0.10, "max tolerated fraction of restraint weight violated before a merge is rejected")
		clusterRMSD                       = flag.Float64("clusterRMSD", 5.0, "RMSD radius (Angstrom) used to deduplicate final assemblies")
		maxBackboneCollisionPerChain      = flag.Float64("maxBackboneCollisionPerChain", 0.10, "max tolerated, per chain slot, ratio of colliding backbone points to above-threshold backbone points")
		minTemperatureToConsiderCollision = flag.Float64("minTemperatureToConsiderCollision", 0, "backbone point confidence (0-100) below which a point is excluded from collision and penetration checks")
		outputFileNamePrefix             = flag.String("outputFileNamePrefix", "output", "prefix for the .res/_clustered.res output files (no .log file is written; the run log goes to stderr and to -log)")
		plotPath                          = flag.String("plot", "", "write a score-distribution PNG to this path (optional)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <chainList> <transFilesPrefix> <transNumPerPair> <bestK> <restraintsFile>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 5 {
		flag.Usage()
		return 2
	}
	chainListPath := flag.Arg(0)
	transFilesPrefix := flag.Arg(1)
	transNumPerPair, err := strconv.Atoi(flag.Arg(2))
	if err != nil {
		fmt.Fprintf(os.Stderr, "transNumPerPair: %v\n", err)
		return 2
	}
	bestK, err := strconv.Atoi(flag.Arg(3))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bestK: %v\n", err)
		return 2
	}
	restraintsPath := flag.Arg(4)

	beamWidth := *maxResultPerResSet
	if beamWidth <= 0 {
		beamWidth = bestK
	}

	logger, closeLog, err := setupLogger(*logPath)
	if err != nil {
		log.Println(err)
		return 1
	}
	defer closeLog()

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			return reportInputError(logger, err)
		}
	} else if err := cfg.Resolve(); err != nil {
		return reportInputError(logger, err)
	}

	reg, types, err := subunit.LoadChainList(chainListPath, cfg)
	if err != nil {
		return reportInputError(logger, err)
	}
	logger.Printf("loaded %d chain slots from %d subunit types", reg.NumSlots(), len(types))

	idx, err := ptransform.LoadDir(transFilesPrefix, transNumPerPair)
	if err != nil {
		return reportInputError(logger, err)
	}

	restraints, err := restraint.LoadFile(restraintsPath, reg)
	if err != nil {
		return reportInputError(logger, err)
	}
	restraints.Connectivity = append(restraints.Connectivity, restraint.AutoConnectivityFromSplits(types, reg, cfg.GridResolution*2)...)
	logger.Printf("active restraints: %d distance, %d connectivity", len(restraints.Distance), len(restraints.Connectivity))

	pol := &superbb.Policy{
		Config:                       cfg,
		ConfidenceThreshold:          *minTemperatureToConsiderCollision,
		MaxBackboneCollisionPerChain: *maxBackboneCollisionPerChain,
		PenetrationDepthThreshold:    *penetrationThr,
		ConstraintViolationLimit:     *restraintsRatio,
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if *timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	res, err := fold.Run(ctx, &fold.Params{
		Registry:   reg,
		Transforms: idx,
		Restraints: restraints,
		Policy:     pol,
		BeamWidth:  beamWidth,
		BestK:      bestK,
		Workers:    *workers,
		Timeout:    *timeout,
	})
	if err != nil {
		logger.Println(err)
		return exitCodeFor(err)
	}
	if len(res.UnreachableSubunits) > 0 {
		logger.Printf("warning: %d chain(s) never reachable via any candidate transform: %v", len(res.UnreachableSubunits), res.UnreachableSubunits)
	}
	if res.TimedOut {
		logger.Printf("warning: search timed out; reporting the best assembly found so far")
	}
	if len(res.Survivors) == 0 {
		noAssembly := combfold.NewErr(combfold.KindNoAssembly, false, "no valid assembly was found")
		logger.Println(noAssembly)
		return noAssembly.Kind().ExitCode()
	}
	logger.Printf("search complete: %d survivors", len(res.Survivors))

	if err := output.WriteResults(*outputFileNamePrefix+".res", res.Survivors, reg); err != nil {
		logger.Println(err)
		return 1
	}

	reps := cluster.Cluster(res.Survivors, reg, *clusterRMSD)
	if err := output.WriteClustered(*outputFileNamePrefix+"_clustered.res", reps, reg); err != nil {
		logger.Println(err)
		return 1
	}
	logger.Printf("wrote %d survivors and %d clustered representatives", len(res.Survivors), len(reps))

	if *plotPath != "" {
		if err := diag.PlotScoreDistribution(*plotPath, res.Survivors); err != nil {
			logger.Printf("warning: could not write diagnostic plot: %v", err)
		}
	}

	return 0
}

// setupLogger returns a logger writing to stderr, and additionally to
// logPath when one is given, mirroring the plain "log" package usage
// throughout the reference library (no structured logging dependency
// appears anywhere in the pack).
func setupLogger(logPath string) (*log.Logger, func() error, error) {
	if logPath == "" {
		return log.New(os.Stderr, "", log.LstdFlags), func() error { return nil }, nil
	}
	f, err := os.Create(logPath)
	if err != nil {
		return nil, nil, fmt.Errorf("main: cannot create log file %s: %w", logPath, err)
	}
	mw := io.MultiWriter(os.Stderr, f)
	return log.New(mw, "", log.LstdFlags), f.Close, nil
}

// exitCodeFor maps err to the CLI exit code table: a combfold.Error
// carries its own Kind; anything else is an unclassified failure.
func exitCodeFor(err error) int {
	if e, ok := err.(combfold.Error); ok {
		return e.Kind().ExitCode()
	}
	return 1
}

// reportInputError logs err and returns the InputParse exit code. Every
// loader below fold.Run reports plain errors (malformed files, bad
// paths) rather than combfold.Error values, since only the search
// itself can fail with the other Kinds in the exit code table.
func reportInputError(logger *log.Logger, err error) int {
	wrapped := combfold.NewErr(combfold.KindInputParse, true, "%v", err)
	logger.Println(wrapped)
	return wrapped.Kind().ExitCode()
}
