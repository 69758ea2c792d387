package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/najoast/hashmine/mine"
)

func newForestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forest <caveInfoPath>",
		Short: "Print the entrances and tree edges every coordinator derives from the mine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mine.Load(args[0])
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			forest := mine.BuildForest(m)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "rooms: %d\n", m.Rooms())
			fmt.Fprintf(out, "entrances: %v\n", forest.Roots())
			for room := 0; room < m.Rooms(); room++ {
				if parent, ok := forest.Parent(room); ok {
					fmt.Fprintf(out, "%d -> %d\t%s\n", parent, room, m.Name(room))
				}
			}
			return nil
		},
	}
}
