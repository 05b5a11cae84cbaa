package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
)

var errEmptyPayload = errors.New("empty payload")

func hasFlag(args []string, flag string) bool {
	return slices.Contains(args, flag)
}

func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.svc.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return err
	}
	a.setMode(ModeOnline)
	printlnFn("OK")
	return nil
}

func (a *App) Create(ctx context.Context, args []string) error {
	owner := args[0]
	encrypt := !hasFlag(args[1:], "-plain")

	text, err := GetMultiline(a.reader, "Enter payload (JSON or text), empty line to finish", a.out)
	if err != nil {
		return err
	}
	if text == "" {
		return errEmptyPayload
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	res, err := a.svc.Create(ctx, parsePayload(text), owner, encrypt)
	if err != nil {
		return err
	}
	return printJSON(a.out, res)
}

func (a *App) Read(ctx context.Context, args []string) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	payload, err := a.svc.Read(ctx, args[0], !hasFlag(args[1:], "-raw"))
	if err != nil {
		return err
	}
	return printJSON(a.out, payload)
}

func (a *App) Status(ctx context.Context, args []string) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	st, err := a.svc.Status(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(a.out, st)
}

func (a *App) Update(ctx context.Context, args []string) error {
	available, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("invalid availability %q: %w", args[1], err)
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.svc.UpdateStatus(ctx, args[0], available, args[2]); err != nil {
		return err
	}
	printlnFn("Updated", args[0])
	return nil
}

func (a *App) List(ctx context.Context) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	items, err := a.svc.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		printlnFn("No resources")
		return nil
	}
	return printJSON(a.out, items)
}

func (a *App) Register(ctx context.Context, args []string) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	res, err := a.svc.Register(ctx, args[0], args[1], !hasFlag(args[2:], "-plain"))
	if err != nil {
		return err
	}
	return printJSON(a.out, res)
}

func (a *App) Orphans(ctx context.Context) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	items, err := a.svc.ListOrphans(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		printlnFn("No orphans")
		return nil
	}
	return printJSON(a.out, items)
}

func (a *App) Token(_ context.Context) error {
	tok, err := GetSecret(a.out, "Access token")
	if err != nil {
		return err
	}
	a.svc.SetAccessToken(tok)
	printlnFn("Token set")
	return nil
}
