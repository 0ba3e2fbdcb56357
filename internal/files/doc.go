// Package files catalogues the report files a pipeline run leaves in the
// reports directory.
//
// Report names follow <prefix>_<period>.<ext>, where period is yyyy_mm or
// "all". Files that do not match a known prefix are ignored.
//
//	d := files.NewDiscovery(paths.ReportsDir)
//	reports, err := d.ListReports()
//	latest, ok := files.GetLatestFile(files.FilterByKind(reports, files.KindWorkbook))
package files
