// Command prompter is the CLI for the script slide conversion service. It
// submits presentations to the daemon, inspects and downloads jobs, manages
// the daemon process, and can run one-off conversions locally.
package main
