package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/encodeous/dvnet/core"
	"github.com/encodeous/dvnet/state"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Interactively drive a simulated network",
	Long: `This loads a topology and drops into a menu where the network can be
stepped, converged, reset, and fed messages or link-cost changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		edges, err := state.ReadTopologyFile(topologyPath)
		if err != nil {
			return err
		}
		log, err := core.NewLogger(logLevel(cmd), "")
		if err != nil {
			return err
		}
		tr := core.NewLogTracer(log)
		n := core.NewNetwork(edges, core.MultiTracer{core.StatsTracer{}, tr})
		return menuLoop(n, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func menuLoop(n *core.Network, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	prompt := func(msg string) (string, bool) {
		fmt.Fprint(out, msg)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}
	for {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "0. run until convergence")
		fmt.Fprintln(out, "1. run one step")
		fmt.Fprintln(out, "2. reset")
		fmt.Fprintln(out, "3. send message")
		fmt.Fprintln(out, "4. change link cost")
		fmt.Fprintln(out, "5. route buffered packets")
		fmt.Fprintln(out, "6. send distance vectors")
		fmt.Fprintln(out, "7. view distance-vector tables")
		fmt.Fprintln(out, "8. view convergence status")
		fmt.Fprintln(out, "9. exit")
		choice, ok := prompt("> ")
		if !ok {
			return scanner.Err()
		}
		switch choice {
		case "0":
			steps := n.RunUntilConverged()
			fmt.Fprintf(out, "converged after %d steps\n", steps)
		case "1":
			n.Step()
		case "2":
			n.Reset()
		case "3":
			src, ok := prompt("source address: ")
			if !ok {
				return scanner.Err()
			}
			dst, ok := prompt("destination address: ")
			if !ok {
				return scanner.Err()
			}
			msg, ok := prompt("message: ")
			if !ok {
				return scanner.Err()
			}
			if _, err := n.SendData(state.Node(src), state.Node(dst), msg); err != nil {
				fmt.Fprintln(out, err)
			}
		case "4":
			src, ok := prompt("source address: ")
			if !ok {
				return scanner.Err()
			}
			dst, ok := prompt("destination address: ")
			if !ok {
				return scanner.Err()
			}
			costStr, ok := prompt("new cost: ")
			if !ok {
				return scanner.Err()
			}
			cost, err := strconv.ParseUint(costStr, 10, 32)
			if err != nil {
				fmt.Fprintln(out, "cost must be a non-negative integer")
				continue
			}
			if err := n.SetLinkCost(state.Node(src), state.Node(dst), uint32(cost)); err != nil {
				fmt.Fprintln(out, err)
			}
		case "5":
			n.RouteAll()
		case "6":
			n.SendAll()
		case "7":
			for _, line := range core.FormatTables(n) {
				fmt.Fprintln(out, line)
			}
		case "8":
			fmt.Fprintf(out, "network is converged: %v\n", n.IsStable())
			for _, line := range core.FormatConvergence(n) {
				fmt.Fprintln(out, line)
			}
		case "9":
			return nil
		default:
			fmt.Fprintln(out, "invalid choice")
		}
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&topologyPath, "topology", "t", "topology.txt", "topology edge-list file")
}
