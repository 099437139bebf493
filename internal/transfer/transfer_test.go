package transfer

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// recordingHandler captures commands instead of running them.
func recordingHandler(t *testing.T) (*Handler, *[][]string) {
	t.Helper()
	h := NewHandler("root", "cci-odp-data.ceda.ac.uk")
	var commands [][]string
	h.runCommand = func(_ context.Context, args []string) (string, error) {
		commands = append(commands, args)
		return "", nil
	}
	return h, &commands
}

func TestCopyToServer(t *testing.T) {
	h, commands := recordingHandler(t)

	dir := t.TempDir()
	catalogDir := filepath.Join(dir, "catalogs")
	if err := os.MkdirAll(catalogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	ncmlFile := filepath.Join(dir, "agg.ncml")
	if err := os.WriteFile(ncmlFile, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	err := h.CopyToServer(context.Background(), []string{catalogDir}, []string{ncmlFile})
	if err != nil {
		t.Fatalf("CopyToServer() error = %v", err)
	}

	want := [][]string{
		{"ssh", "root@cci-odp-data.ceda.ac.uk", "--", "mkdir", "-p", RemoteCatalogDest},
		{"rsync", "-a", catalogDir + "/", "root@cci-odp-data.ceda.ac.uk:" + RemoteCatalogDest},
		{"rsync", "-a", ncmlFile, "root@cci-odp-data.ceda.ac.uk:/usr/local/aggregations"},
		{"ssh", "root@cci-odp-data.ceda.ac.uk", "--", "service", "tomcat", "restart"},
	}
	if !reflect.DeepEqual(*commands, want) {
		t.Errorf("commands = %v, want %v", *commands, want)
	}
}

func TestDeleteFromServer(t *testing.T) {
	h, commands := recordingHandler(t)

	err := h.DeleteFromServer(context.Background(),
		[]string{"1/esacci.CLOUD.xml"}, []string{"CLOUD/agg.ncml"})
	if err != nil {
		t.Fatalf("DeleteFromServer() error = %v", err)
	}

	got := *commands
	if len(got) != 3 {
		t.Fatalf("ran %d commands, want 3: %v", len(got), got)
	}
	wantRM := []string{"ssh", "root@cci-odp-data.ceda.ac.uk", "--", "rm", "-f", "--",
		RemoteCatalogDest + "/1/esacci.CLOUD.xml",
		"/usr/local/aggregations/CLOUD/agg.ncml"}
	if !reflect.DeepEqual(got[0], wantRM) {
		t.Errorf("rm command = %v, want %v", got[0], wantRM)
	}
	for i, root := range []string{RemoteCatalogDest, "/usr/local/aggregations"} {
		find := got[i+1]
		if find[3] != "find" || find[4] != root || find[len(find)-1] != "-delete" {
			t.Errorf("prune command for %s = %v", root, find)
		}
	}
}

func TestRetrieve(t *testing.T) {
	h := NewHandler("root", "example.com")
	var seen []string
	h.runCommand = func(_ context.Context, args []string) (string, error) {
		seen = args
		return "<catalog/>", nil
	}

	out, err := h.RetrieveCatalog(context.Background(), "1/esacci.CLOUD.xml")
	if err != nil {
		t.Fatal(err)
	}
	if out != "<catalog/>" {
		t.Errorf("RetrieveCatalog() = %q", out)
	}
	want := []string{"ssh", "root@example.com", "--", "cat",
		RemoteCatalogDest + "/1/esacci.CLOUD.xml"}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("command = %v, want %v", seen, want)
	}
}

func TestDryRunEchoesWithoutRunning(t *testing.T) {
	h := NewHandler("root", "example.com")
	h.DryRun = true
	var out strings.Builder
	h.Output = &out
	ran := false
	h.runCommand = func(_ context.Context, args []string) (string, error) {
		ran = true
		return "", nil
	}

	if err := h.ReinitServer(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ran {
		t.Error("dry run executed a command")
	}
	if got := out.String(); got != "ssh root@example.com -- service tomcat restart\n" {
		t.Errorf("echoed %q", got)
	}
}
