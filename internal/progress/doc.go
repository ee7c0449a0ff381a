// Package progress tracks concurrent download, verification, installation
// and update tasks and renders their live status to a terminal.
//
// A Manager owns one session at a time. Producers register tasks with
// AddTask and report through UpdateTask and FinishTask; a background loop
// snapshots the registry at a fixed rate and redraws the report. On a
// terminal the report is redrawn in place. On pipes and files each distinct
// section is appended once, and the final summary is always written.
//
//	m := progress.NewManager(progress.NewTerminalSink(os.Stderr))
//	err := m.Session(ctx, func(ctx context.Context) error {
//		id, err := m.AddTask("app.AppImage", progress.CategoryDownload, progress.WithTotal(size))
//		if err != nil {
//			return err
//		}
//		m.UpdateTask(id, progress.Update{Completed: progress.Float(n)})
//		m.FinishTask(id, true, "")
//		return nil
//	})
package progress
