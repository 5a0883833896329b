package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/xraph/till"
	"github.com/xraph/till/catalog"
	"github.com/xraph/till/inventory"
	"github.com/xraph/till/layaway"
	"github.com/xraph/till/payroll"
	"github.com/xraph/till/sale"
)

const dayLayout = "2006-01-02"

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

// parseKey reads "Category/Brand/Item".
func parseKey(s string) (inventory.Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return inventory.Key{}, fmt.Errorf("item key %q: want Category/Brand/Item", s)
	}
	k := inventory.NewKey(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]))
	if !k.Valid() {
		return inventory.Key{}, fmt.Errorf("item key %q has an empty part", s)
	}
	return k, nil
}

// splitPair reads "left=right".
func splitPair(s, what string) (string, string, error) {
	left, right, ok := strings.Cut(s, "=")
	if !ok || left == "" || right == "" {
		return "", "", fmt.Errorf("%s %q: want left=right", what, s)
	}
	return strings.TrimSpace(left), strings.TrimSpace(right), nil
}

func keyArg(c *cli.Context) (inventory.Key, error) {
	if c.NArg() < 1 {
		return inventory.Key{}, errors.New("missing Category/Brand/Item argument")
	}
	return parseKey(c.Args().First())
}

// ==================== inventory ====================

func inventoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "show or correct stock levels",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list every inventory record",
				Action: func(c *cli.Context) error {
					return withEngine(c, func(_ context.Context, eng *till.Engine) error {
						sess, err := eng.Session()
						if err != nil {
							return err
						}
						w := newTable()
						fmt.Fprintln(w, "CODE\tCATEGORY\tBRAND\tITEM\tQTY\tPRICE\tLAST CHANGE")
						for _, r := range sess.Inventory().Records() {
							fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
								r.ItemCode, r.Category, r.Brand, r.Item, r.Quantity, r.Price, r.LastChange)
						}
						return w.Flush()
					})
				},
			},
			{
				Name:      "adjust",
				Usage:     "set the on-hand quantity of an item",
				ArgsUsage: "Category/Brand/Item QUANTITY",
				Action: func(c *cli.Context) error {
					key, err := keyArg(c)
					if err != nil {
						return err
					}
					qty, err := strconv.Atoi(c.Args().Get(1))
					if err != nil {
						return fmt.Errorf("quantity: %w", err)
					}
					return withEngine(c, func(ctx context.Context, eng *till.Engine) error {
						sess, err := eng.Session()
						if err != nil {
							return err
						}
						rec, err := sess.AdjustInventory(ctx, key, qty)
						if err != nil {
							return err
						}
						fmt.Printf("%s now %d on hand\n", rec.Key(), rec.Quantity)
						return nil
					})
				},
			},
		},
	}
}

// ==================== catalog ====================

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "maintain the menu of untracked items",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list menu items",
				Action: func(c *cli.Context) error {
					return withEngine(c, func(_ context.Context, eng *till.Engine) error {
						sess, err := eng.Session()
						if err != nil {
							return err
						}
						w := newTable()
						fmt.Fprintln(w, "CODE\tCATEGORY\tBRAND\tITEM\tPRICE")
						for _, it := range sess.Catalog().Items() {
							fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.ItemCode, it.Category, it.Brand, it.Item, it.Price)
						}
						return w.Flush()
					})
				},
			},
			{
				Name:      "set",
				Usage:     "add or replace a menu item",
				ArgsUsage: "Category/Brand/Item",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "code", Usage: "item code", Required: true},
					&cli.StringFlag{Name: "price", Usage: "price, e.g. 4.50", Required: true},
				},
				Action: func(c *cli.Context) error {
					key, err := keyArg(c)
					if err != nil {
						return err
					}
					return withEngine(c, func(ctx context.Context, eng *till.Engine) error {
						price, err := till.ParseMoney(c.String("price"), eng.Currency())
						if err != nil {
							return err
						}
						sess, err := eng.Session()
						if err != nil {
							return err
						}
						change := till.MenuAdded
						if _, ok := sess.Catalog().Lookup(key); ok {
							change = till.MenuUpdated
						}
						return sess.ApplyMenuChange(ctx, change, catalog.Item{
							Category: key.Category,
							Brand:    key.Brand,
							Item:     key.Item,
							ItemCode: c.String("code"),
							Price:    price,
						})
					})
				},
			},
			{
				Name:      "remove",
				Usage:     "remove a menu item",
				ArgsUsage: "Category/Brand/Item",
				Action: func(c *cli.Context) error {
					key, err := keyArg(c)
					if err != nil {
						return err
					}
					return withEngine(c, func(ctx context.Context, eng *till.Engine) error {
						sess, err := eng.Session()
						if err != nil {
							return err
						}
						return sess.ApplyMenuChange(ctx, till.MenuRemoved, catalog.Item{
							Category: key.Category, Brand: key.Brand, Item: key.Item,
						})
					})
				},
			},
		},
	}
}

// ==================== layaways ====================

func holdArg(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", errors.New("missing hold ID argument")
	}
	return c.Args().First(), nil
}

func layawayCommand() *cli.Command {
	return &cli.Command{
		Name:    "layaways",
		Aliases: []string{"layaway"},
		Usage:   "show and manage open holds",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list open holds",
				Action: func(c *cli.Context) error {
					return withEngine(c, func(_ context.Context, eng *till.Engine) error {
						sess, err := eng.Session()
						if err != nil {
							return err
						}
						w := newTable()
						fmt.Fprintln(w, "ID\tITEM\tCUSTOMER\tPHONE\tPRICE\tPAID\tREMAINING")
						for _, h := range sess.Layaways() {
							fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
								h.ID, h.Key(), h.Customer.Name, h.Customer.Phone,
								h.OriginalPrice, h.AmountPaid, h.RemainingBalance)
						}
						return w.Flush()
					})
				},
			},
			{
				Name:      "edit",
				Usage:     "set the remaining balance of a hold",
				ArgsUsage: "HOLD_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "remaining", Usage: "new remaining balance", Required: true},
				},
				Action: func(c *cli.Context) error {
					raw, err := holdArg(c)
					if err != nil {
						return err
					}
					holdID, err := till.ParseHoldID(raw)
					if err != nil {
						return err
					}
					return withEngine(c, func(ctx context.Context, eng *till.Engine) error {
						remaining, err := till.ParseMoney(c.String("remaining"), eng.Currency())
						if err != nil {
							return err
						}
						sess, err := eng.Session()
						if err != nil {
							return err
						}
						h, err := sess.EditLayawayBalance(ctx, holdID, remaining)
						if err != nil {
							return err
						}
						printHold(h)
						return nil
					})
				},
			},
			{
				Name:      "cancel",
				Usage:     "cancel a hold and restock its item",
				ArgsUsage: "HOLD_ID",
				Action: func(c *cli.Context) error {
					raw, err := holdArg(c)
					if err != nil {
						return err
					}
					holdID, err := till.ParseHoldID(raw)
					if err != nil {
						return err
					}
					return withEngine(c, func(ctx context.Context, eng *till.Engine) error {
						sess, err := eng.Session()
						if err != nil {
							return err
						}
						h, err := sess.CancelLayaway(ctx, holdID)
						if err != nil {
							return err
						}
						fmt.Printf("canceled %s (%s)\n", h.ID, h.Key())
						return nil
					})
				},
			},
		},
	}
}

func printHold(h layaway.Hold) {
	if h.Completed() {
		fmt.Printf("%s (%s) is paid in full\n", h.ID, h.Key())
		return
	}
	fmt.Printf("%s (%s) paid %s, remaining %s\n", h.ID, h.Key(), h.AmountPaid, h.RemainingBalance)
}

// ==================== log ====================

func logCommand() *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "print the sales log for one day",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "day", Usage: "day as YYYY-MM-DD, default today"},
		},
		Action: func(c *cli.Context) error {
			day := time.Now()
			if v := c.String("day"); v != "" {
				parsed, err := time.ParseInLocation(dayLayout, v, time.Local)
				if err != nil {
					return fmt.Errorf("day: %w", err)
				}
				day = parsed
			}
			return withEngine(c, func(ctx context.Context, eng *till.Engine) error {
				entries, err := eng.ReadLog(ctx, day)
				if err != nil {
					return err
				}
				w := newTable()
				fmt.Fprintln(w, "TIME\tACTION\tCODE\tITEM\tQTY CHANGE\tNEW QTY\tPRICE\tDISCOUNT")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						e.Timestamp.Local().Format(time.TimeOnly), e.Action, e.ItemCode,
						inventory.NewKey(e.Category, e.Brand, e.Item),
						optionalInt(e.QuantityChange), optionalInt(e.NewQuantity),
						e.PriceSold, e.DiscountApplied)
				}
				return w.Flush()
			})
		},
	}
}

func optionalInt(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}

// ==================== payroll ====================

func punchCommand() *cli.Command {
	return &cli.Command{
		Name:      "punch",
		Usage:     "clock a worker in or out",
		ArgsUsage: "WORKER in|out",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return errors.New("usage: till punch WORKER in|out")
			}
			worker := c.Args().Get(0)
			dir := payroll.Direction(strings.ToUpper(c.Args().Get(1)))
			if !dir.Valid() {
				return fmt.Errorf("direction %q: want in or out", c.Args().Get(1))
			}
			return withEngine(c, func(ctx context.Context, eng *till.Engine) error {
				p, err := eng.RecordPunch(ctx, worker, dir)
				if err != nil {
					return err
				}
				fmt.Printf("%s clocked %s at %s\n", p.Worker, strings.ToLower(string(p.Direction)),
					p.At.Local().Format(time.DateTime))
				return nil
			})
		},
	}
}

func payrollCommand() *cli.Command {
	return &cli.Command{
		Name:  "payroll",
		Usage: "hours worked in the current and previous pay periods",
		Action: func(c *cli.Context) error {
			return withEngine(c, func(ctx context.Context, eng *till.Engine) error {
				report, err := eng.PayrollReport(ctx)
				if err != nil {
					return err
				}
				w := newTable()
				for _, s := range []payroll.PeriodSummary{report.Current, report.Previous} {
					fmt.Fprintf(w, "%s\t%s to %s\n", s.Period.Title,
						s.Period.Start.Format(dayLayout), s.Period.End.Add(-time.Nanosecond).Format(dayLayout))
					fmt.Fprintln(w, "WORKER\tSHIFTS\tHOURS\tOPEN")
					for _, wh := range s.Workers {
						fmt.Fprintf(w, "%s\t%d\t%s\t%d\n", wh.Worker, len(wh.Shifts), wh.Hours().StringFixed(2), wh.Unmatched)
					}
					fmt.Fprintln(w)
				}
				return w.Flush()
			})
		},
	}
}

// ==================== sell ====================

func sellCommand() *cli.Command {
	return &cli.Command{
		Name:  "sell",
		Usage: "ring up one sale and complete it",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "item", Usage: "Category/Brand/Item, optionally @discount (10% or 2.00)"},
			&cli.StringSliceFlag{Name: "custom", Usage: "custom line as description=price"},
			&cli.StringSliceFlag{Name: "layaway", Usage: "open a hold as Category/Brand/Item=original price"},
			&cli.StringFlag{Name: "customer", Usage: "customer name for opened holds"},
			&cli.StringFlag{Name: "phone", Usage: "customer phone for opened holds"},
			&cli.StringSliceFlag{Name: "layaway-payment", Usage: "pay into a hold as HOLD_ID=amount"},
			&cli.BoolFlag{Name: "allow-oversell", Usage: "sell tracked items with no stock on hand"},
		},
		Action: func(c *cli.Context) error {
			allow := c.Bool("allow-oversell")
			confirm := till.WithStockConfirmer(func(context.Context, inventory.Record) bool { return allow })

			return withEngine(c, func(ctx context.Context, eng *till.Engine) error {
				sess, err := eng.Session()
				if err != nil {
					return err
				}
				if err := ringUp(ctx, c, eng, sess); err != nil {
					if cancelErr := sess.CancelSale(ctx); cancelErr != nil {
						return errors.Join(err, cancelErr)
					}
					return err
				}
				if sess.Len() == 0 {
					return errors.New("nothing to sell")
				}
				receipt, err := sess.CompleteSale(ctx)
				if err != nil {
					return err
				}
				printReceipt(receipt)
				return nil
			}, confirm)
		},
	}
}

func ringUp(ctx context.Context, c *cli.Context, eng *till.Engine, sess *till.Session) error {
	currency := eng.Currency()

	for _, raw := range c.StringSlice("item") {
		keyPart, label, _ := strings.Cut(raw, "@")
		key, err := parseKey(keyPart)
		if err != nil {
			return err
		}
		discount, err := sale.ParseDiscount(label, currency)
		if err != nil {
			return err
		}
		if _, err := sess.AddItem(ctx, key, discount); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	for _, raw := range c.StringSlice("custom") {
		desc, amount, err := splitPair(raw, "custom line")
		if err != nil {
			return err
		}
		price, err := till.ParseMoney(amount, currency)
		if err != nil {
			return err
		}
		if _, err := sess.AddCustomItem(ctx, desc, price); err != nil {
			return err
		}
	}

	customer := layaway.Customer{Name: c.String("customer"), Phone: c.String("phone")}
	for _, raw := range c.StringSlice("layaway") {
		keyPart, amount, err := splitPair(raw, "layaway")
		if err != nil {
			return err
		}
		key, err := parseKey(keyPart)
		if err != nil {
			return err
		}
		original, err := till.ParseMoney(amount, currency)
		if err != nil {
			return err
		}
		_, h, err := sess.AddLayawayDownPayment(ctx, till.LayawayRequest{
			Key:           key,
			OriginalPrice: original,
			Customer:      customer,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		fmt.Printf("opened hold %s\n", h.ID)
	}

	for _, raw := range c.StringSlice("layaway-payment") {
		rawID, amount, err := splitPair(raw, "layaway payment")
		if err != nil {
			return err
		}
		holdID, err := till.ParseHoldID(rawID)
		if err != nil {
			return err
		}
		paid, err := till.ParseMoney(amount, currency)
		if err != nil {
			return err
		}
		if _, err := sess.AddLayawayPayment(ctx, holdID, paid); err != nil {
			return fmt.Errorf("hold %s: %w", holdID, err)
		}
	}
	return nil
}

func printReceipt(r *sale.Receipt) {
	w := newTable()
	for _, l := range r.Lines {
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.Kind(), l.ItemKey(), l.Amount())
	}
	fmt.Fprintf(w, "TOTAL\t\t%s\n", r.Total)
	_ = w.Flush()
	for _, n := range r.FinalizedNotices() {
		fmt.Println(n)
	}
}
