// Package cmd is for command line interactions with rxcore
package cmd

import (
	"strings"

	"github.com/henderiw/rxcore/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     config.Config
	log     = logrus.NewEntry(logrus.StandardLogger())
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rxcore",
	Short: "Coverage, read pair and alignment layout tools for mapped reads",
	Long: `Reads mappings from a BAM file or a mapping database and computes
per-class coverage, read pair groups and a layered alignment layout
for a reference region.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.StringP("bam", "b", "", "BAM file with the mappings")
	flags.String("dsn", "", "MySQL data source name of a mapping database")
	flags.Int64("track", 0, "track id in the mapping database")
	flags.StringP("fasta", "f", "", "reference FASTA file")
	flags.StringP("region", "r", "", "region as chr:start-end, 1-based")
	flags.String("log-level", "info", "log level")

	for _, name := range []string{"bam", "dsn", "track", "fasta", "region", "log-level"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
	}
	c, err := config.New(viper.GetViper())
	if err != nil {
		return err
	}
	lvl, _ := c.Level()
	logrus.SetLevel(lvl)
	if cfgFile != "" {
		log.WithField("file", viper.ConfigFileUsed()).Debug("config loaded")
	}
	cfg = c
	return nil
}
