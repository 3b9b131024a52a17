package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ASBoldt/quantgen/internal/abf"
	"github.com/ASBoldt/quantgen/internal/assoc"
	"github.com/ASBoldt/quantgen/internal/cisscan"
	"github.com/ASBoldt/quantgen/internal/configenum"
	"github.com/ASBoldt/quantgen/internal/ioadapt"
	"github.com/ASBoldt/quantgen/internal/model"
	"github.com/ASBoldt/quantgen/internal/permute"
	"github.com/ASBoldt/quantgen/internal/quantlog"
	"github.com/ASBoldt/quantgen/internal/resumestore"
)

type runConfig struct {
	geno, pheno, fcoord, out string
	step                     int
	anchor                   string
	cis                      int64
	qnorm                    bool
	gridPath                 string
	bfs                      string
	nperm                    int
	seed                     int64
	trick                    int
	pbf                      string
	ftrAllow, snpAllow       string
	verbose                  bool
	resumePath               string
	workers                  int
}

func runAssociate(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var cfg runConfig

	fs.StringVar(&cfg.geno, "geno", "", "genotype list file (required)")
	fs.StringVar(&cfg.pheno, "pheno", "", "phenotype list file (required)")
	fs.StringVar(&cfg.fcoord, "fcoord", "", "feature coordinate BED file (required)")
	fs.StringVar(&cfg.out, "out", "", "output prefix (required)")
	fs.IntVar(&cfg.step, "step", 0, "pipeline step 1-5 (required)")
	fs.StringVar(&cfg.anchor, "anchor", "FSS", "cis-window anchor: FSS or FSS+FES")
	fs.Int64Var(&cfg.cis, "cis", 100000, "cis half-window size in bp")
	fs.BoolVar(&cfg.qnorm, "qnorm", false, "quantile-normalize phenotypes before OLS")
	fs.StringVar(&cfg.gridPath, "grid", "", "grid file of phi^2/omega^2 pairs (required for step>=3)")
	fs.StringVar(&cfg.bfs, "bfs", "const", "ABF configuration family: const, subset, all")
	fs.IntVar(&cfg.nperm, "nperm", 10000, "number of permutations")
	fs.Int64Var(&cfg.seed, "seed", 0, "RNG seed (default: wall-clock microseconds)")
	fs.IntVar(&cfg.trick, "trick", 0, "early-stop trick: 0, 1, 2")
	fs.StringVar(&cfg.pbf, "pbf", "const", "permutation ABF family: const, subset, all")
	fs.StringVar(&cfg.ftrAllow, "ftr", "", "optional feature allow-list file")
	fs.StringVar(&cfg.snpAllow, "snp", "", "optional SNP allow-list file")
	fs.BoolVar(&cfg.verbose, "verbose", false, "verbose structured logging")
	fs.StringVar(&cfg.resumePath, "resume", "", "optional DuckDB file to persist/resume results")
	fs.IntVar(&cfg.workers, "workers", 0, "association worker count (default: NumCPU)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Run the cis-regulatory association/permutation pipeline.\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fs.Usage()
		return ExitError
	}

	if cfg.seed == 0 {
		cfg.seed = time.Now().UnixMicro()
	}

	log := quantlog.New(cfg.verbose)
	defer log.Sync()

	if err := execute(cfg, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

func (c runConfig) needsJoint() bool   { return c.step >= 3 }
func (c runConfig) needsPermSep() bool { return c.step == 2 || c.step == 5 }
func (c runConfig) needsPermJoint() bool {
	return c.step == 4 || c.step == 5
}

func (c runConfig) validate() error {
	if c.geno == "" || c.pheno == "" || c.fcoord == "" || c.out == "" {
		return fmt.Errorf("geno, pheno, fcoord and out are all required")
	}
	if c.step < 1 || c.step > 5 {
		return fmt.Errorf("step must be 1-5, got %d", c.step)
	}
	if _, ok := cisscan.ParseAnchor(c.anchor); !ok {
		return fmt.Errorf("anchor must be FSS or FSS+FES, got %q", c.anchor)
	}
	bfs, ok := abf.ParseFamily(c.bfs)
	if !ok {
		return fmt.Errorf("bfs must be const, subset or all, got %q", c.bfs)
	}
	pbf, ok := abf.ParseFamily(c.pbf)
	if !ok {
		return fmt.Errorf("pbf must be const, subset or all, got %q", c.pbf)
	}
	if _, ok := permute.ParseTrick(c.trick); !ok {
		return fmt.Errorf("trick must be 0, 1 or 2, got %d", c.trick)
	}
	if c.needsJoint() && c.gridPath == "" {
		return fmt.Errorf("grid is required for step>=3")
	}
	// spec.md 6: bfs=const => pbf=const; bfs=subset => pbf in {const,subset}.
	if c.needsJoint() {
		switch bfs {
		case abf.FamilyConst:
			if pbf != abf.FamilyConst {
				return fmt.Errorf("bfs=const requires pbf=const")
			}
		case abf.FamilySubset:
			if pbf != abf.FamilyConst && pbf != abf.FamilySubset {
				return fmt.Errorf("bfs=subset requires pbf in {const,subset}")
			}
		}
	}
	return nil
}

func execute(cfg runConfig, log *quantlog.Logger) error {
	anchor, _ := cisscan.ParseAnchor(cfg.anchor)
	bfs, _ := abf.ParseFamily(cfg.bfs)
	pbf, _ := abf.ParseFamily(cfg.pbf)
	trick, _ := permute.ParseTrick(cfg.trick)

	var grid []abf.GridPoint
	if cfg.needsJoint() {
		var err error
		grid, err = ioadapt.LoadGrid(cfg.gridPath)
		if err != nil {
			return err
		}
	}

	log.Infof("loading inputs")
	cat, alignment, subgroups, err := ioadapt.Build(ioadapt.BuildInputs{
		GenotypeListPath:  cfg.geno,
		PhenotypeListPath: cfg.pheno,
		FeatureCoordPath:  cfg.fcoord,
		FtrAllowListPath:  cfg.ftrAllow,
		SnpAllowListPath:  cfg.snpAllow,
	})
	if err != nil {
		return err
	}
	log.Infof("loaded %d snps, %d features, %d subgroups", len(cat.Snps), len(cat.Ftrs), len(subgroups))

	var store *resumestore.Store
	if cfg.resumePath != "" {
		store, err = resumestore.Open(cfg.resumePath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	engine := assoc.NewEngine(cat.Snps, alignment, assoc.Options{
		Anchor:       anchor,
		HalfWindow:   cfg.cis,
		QuantileNorm: cfg.qnorm,
		Grid:         grid,
		Family:       bfs,
		PermFamily:   pbf,
		OnFeatureDone: func(ftrName string, nbSnps int, elapsedSeconds float64) {
			log.FtrDone(ftrName, nbSnps, elapsedSeconds)
		},
	})

	// Locate every feature's cis-SNPs up front, whether or not resume
	// is in play -- tryResumeFeature needs CisSnps populated to know
	// which SNPs to look up in the store, and the writer loops below
	// rely on it for zero-cis-SNP features regardless.
	for _, f := range cat.Ftrs {
		engine.ScanCisSnps(f)
	}

	toAssociate := cat.Ftrs
	if store != nil {
		toAssociate = make([]*model.Ftr, 0, len(cat.Ftrs))
		resumed := 0
		for _, f := range cat.Ftrs {
			if len(f.CisSnps) == 0 {
				continue
			}
			ok, err := tryResumeFeature(f, cat.Snps, store, len(subgroups), grid, bfs, pbf)
			if err != nil {
				return err
			}
			if ok {
				resumed++
				continue
			}
			toAssociate = append(toAssociate, f)
		}
		if resumed > 0 {
			log.Infof("resumed %d features already associated", resumed)
		}
	}

	start := time.Now()
	engine.RunAllParallel(toAssociate, cfg.workers)
	log.Infof("association scan done in %s", time.Since(start))

	if store != nil {
		for _, f := range toAssociate {
			for _, r := range f.PairResults {
				for s := range subgroups {
					if err := store.SaveAssocResult(f.Name, r, s); err != nil {
						return err
					}
				}
			}
		}
	}

	numSubgroups := len(subgroups)
	onMilestone := func(ftrName string, perm, nperm int) { log.PermMilestone(ftrName, perm, nperm) }

	if cfg.needsPermSep() {
		for s := 0; s < numSubgroups; s++ {
			toPermute := cat.Ftrs
			if store != nil {
				var err error
				toPermute, err = resumePermCounters(cat.Ftrs, store, s, cfg.nperm, log)
				if err != nil {
					return err
				}
			}
			log.Infof("permuting subgroup %s (separate mode)", subgroups[s])
			permute.RunSeparate(toPermute, cat.Snps, alignment, s, cfg.seed, cfg.nperm, trick, onMilestone)
			if store != nil {
				for _, f := range toPermute {
					if len(f.CisSnps) == 0 {
						continue
					}
					if err := store.SavePermCounter(f.Name, s, f.NbPermsSoFar[s], f.PermPvalSep[s]); err != nil {
						return err
					}
				}
			}
		}
	}

	if cfg.needsPermJoint() {
		toPermute := cat.Ftrs
		if store != nil {
			var err error
			toPermute, err = resumeJointCounters(cat.Ftrs, store, cfg.nperm, log)
			if err != nil {
				return err
			}
		}
		log.Infof("permuting (joint mode)")
		permute.RunJoint(toPermute, cat.Snps, alignment, numSubgroups, cfg.seed, cfg.nperm, trick, permute.JointOptions{
			Grid:        grid,
			PermFamily:  pbf,
			OnMilestone: onMilestone,
		})
		if store != nil {
			for _, f := range toPermute {
				if len(f.CisSnps) == 0 {
					continue
				}
				if err := store.SaveJointPermCounter(f.Name, f.NbPermsSoFarJoint, f.JointPermPval, f.MaxL10TrueAbf); err != nil {
					return err
				}
			}
		}
	}

	log.Infof("writing outputs")
	return writeOutputs(cfg, cat, subgroups, grid, bfs, numSubgroups)
}

func writeOutputs(cfg runConfig, cat *model.Catalogue, subgroups []string, grid []abf.GridPoint, bfs abf.Family, numSubgroups int) error {
	snpByIdx := cat.Snps

	for s, subgroupID := range subgroups {
		path := fmt.Sprintf("%s_sumstats_%s.txt.gz", cfg.out, subgroupID)
		w, err := ioadapt.NewSumstatsWriter(path)
		if err != nil {
			return err
		}
		if err := w.WriteHeader(); err != nil {
			w.Close()
			return err
		}
		for _, f := range cat.Ftrs {
			for _, r := range f.PairResults {
				snp := snpByIdx[r.SnpIdx]
				if err := w.WriteRow(f.Name, snp, r, s); err != nil {
					w.Close()
					return err
				}
			}
		}
		if err := w.Close(); err != nil {
			return err
		}
	}

	if cfg.needsPermSep() {
		for s, subgroupID := range subgroups {
			path := fmt.Sprintf("%s_permPval_%s.txt.gz", cfg.out, subgroupID)
			w, err := ioadapt.NewPermPvalWriter(path)
			if err != nil {
				return err
			}
			if err := w.WriteHeader(); err != nil {
				w.Close()
				return err
			}
			for _, f := range cat.Ftrs {
				if err := w.WriteRow(f, s); err != nil {
					w.Close()
					return err
				}
			}
			if err := w.Close(); err != nil {
				return err
			}
		}
	}

	if cfg.needsJoint() {
		if err := writeAbfOutputs(cfg, cat, grid, bfs, numSubgroups); err != nil {
			return err
		}
	}

	if cfg.needsPermJoint() {
		path := fmt.Sprintf("%s_jointPermPvals.txt.gz", cfg.out)
		w, err := ioadapt.NewJointPermPvalsWriter(path)
		if err != nil {
			return err
		}
		if err := w.WriteHeader(); err != nil {
			w.Close()
			return err
		}
		for _, f := range cat.Ftrs {
			if err := w.WriteRow(f); err != nil {
				w.Close()
				return err
			}
		}
		if err := w.Close(); err != nil {
			return err
		}
	}

	return nil
}

// extraConfigLabels reproduces, for the given family and subgroup count,
// the configuration labels beyond "const" that the associate phase
// computed -- in the same enumerator order -- so the weighted-ABF header
// and every row line up (spec.md 4.3: "the enumeration is deterministic
// and identical between associate-phase and write-phase").
func extraConfigLabels(family abf.Family, numSubgroups int) []string {
	switch family {
	case abf.FamilySubset:
		return labelsOf(configenum.Subset(numSubgroups))
	case abf.FamilyAll:
		return labelsOf(configenum.All(numSubgroups))
	default:
		return nil
	}
}

func writeAbfOutputs(cfg runConfig, cat *model.Catalogue, grid []abf.GridPoint, bfs abf.Family, numSubgroups int) error {
	unweightedLabels := append([]string{"const"}, extraConfigLabels(bfs, numSubgroups)...)

	uw, err := ioadapt.NewAbfsUnweightedWriter(fmt.Sprintf("%s_abfs_unweighted.txt.gz", cfg.out), len(grid))
	if err != nil {
		return err
	}
	if err := uw.WriteHeader(); err != nil {
		uw.Close()
		return err
	}
	for _, f := range cat.Ftrs {
		for _, r := range f.PairResults {
			for _, label := range unweightedLabels {
				vals := r.UnweightedAbfs[label]
				if vals == nil {
					vals = nanVector(len(grid))
				}
				if err := uw.WriteRow(f.Name, r.SnpName, label, vals); err != nil {
					uw.Close()
					return err
				}
			}
		}
	}
	if err := uw.Close(); err != nil {
		return err
	}

	w, err := ioadapt.NewAbfsWeightedWriter(fmt.Sprintf("%s_abfs_weighted.txt.gz", cfg.out), extraConfigLabels(bfs, numSubgroups))
	if err != nil {
		return err
	}
	if err := w.WriteHeader(); err != nil {
		w.Close()
		return err
	}
	for _, f := range cat.Ftrs {
		for _, r := range f.PairResults {
			if err := w.WriteRow(f.Name, r, numSubgroups); err != nil {
				w.Close()
				return err
			}
		}
	}
	return w.Close()
}

func nanVector(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}

func labelsOf(configs []configenum.Config) []string {
	labels := make([]string, len(configs))
	for i, c := range configs {
		labels[i] = c.Label
	}
	return labels
}
