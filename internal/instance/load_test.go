package instance

import (
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSampleInstance(t *testing.T) {
	inst, err := Load(sampleDir, "scc_01")
	require.NoError(t, err)

	assert.Equal(t, "scc_01", inst.Name)
	assert.Equal(t, []string{"EAF", "AOD", "LF", "CC"}, inst.Stages())
	assert.Equal(t, []string{"CA1", "CA2"}, inst.CastIDs())
	assert.Equal(t, []string{"CH1", "CH2", "CH3", "CH4", "CH5"}, inst.Charges())
	assert.Equal(t, 7, inst.MachineCount())

	castID, ok := inst.CastOf("CH4")
	require.True(t, ok)
	assert.Equal(t, "CA2", castID)

	stage, ok := inst.StageOf("LF2")
	require.True(t, ok)
	assert.Equal(t, "LF", stage)

	due, ok := inst.DueDate("CH3")
	require.True(t, ok)
	assert.Equal(t, 280, due)

	assert.Equal(t, map[string]int{"EAF1": 70, "EAF2": 75}, inst.StageTimes("CH1", "EAF"))
	assert.Equal(t, map[string]int{"CC2": 60}, inst.StageTimes("CH4", "CC"))
	assert.Equal(t, []string{"EAF", "AOD", "LF", "CC"}, inst.Route("CH1"))
}

func TestLoadEveryChargeInExactlyOneCast(t *testing.T) {
	inst, err := Load(sampleDir, "scc_01")
	require.NoError(t, err)

	count := make(map[string]int)
	for _, castID := range inst.CastIDs() {
		charges, ok := inst.Cast(castID)
		require.True(t, ok)
		for _, ch := range charges {
			count[ch]++
		}
	}
	for _, ch := range inst.Charges() {
		assert.Equal(t, 1, count[ch], "charge %s", ch)
	}
}

func TestLoadEveryRequiredStageHasTime(t *testing.T) {
	inst, err := Load(sampleDir, "scc_01")
	require.NoError(t, err)

	for _, ch := range inst.Charges() {
		for _, stage := range inst.RequiredStages(ch) {
			times := inst.StageTimes(ch, stage)
			require.NotEmpty(t, times, "charge %s stage %s", ch, stage)
			for m, pt := range times {
				assert.GreaterOrEqual(t, pt, 0, "charge %s machine %s", ch, m)
			}
		}
	}
}

func TestLoadCastIsImmutable(t *testing.T) {
	inst, err := Load(sampleDir, "scc_01")
	require.NoError(t, err)

	charges, _ := inst.Cast("CA1")
	charges[0] = "MUTATED"
	stages := inst.Stages()
	stages[0] = "MUTATED"

	again, _ := inst.Cast("CA1")
	assert.Equal(t, "CH1", again[0])
	assert.Equal(t, "EAF", inst.Stages()[0])
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeInstance(t, dir, "x", validEnv, validCast, "", validPT)

	_, err := Load(dir, "x")
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrCodeFileUnreadable, perr.Code)
	assert.Equal(t, FileDueDate, perr.Kind)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "x_duedate.json")
}

func TestLoadReferentialIntegrityMessage(t *testing.T) {
	dir := t.TempDir()
	pt := "ch_id,mc_id,pt\nCH1,E1,60\nCH1,C1,40\nCH2,E2,65\nCH2,C1,45\nCH3,E1,70\n"
	writeInstance(t, dir, "x", validEnv, validCast, validDue, pt)

	_, err := Load(dir, "x")
	require.Error(t, err)

	var rerr *ReferentialIntegrityError
	require.ErrorAs(t, err, &rerr)
	require.Len(t, rerr.Violations, 1)
	v := rerr.Violations[0]
	assert.Equal(t, ErrCodeMissingTime, v.Code)
	assert.Equal(t, "CH3", v.Charge)
	assert.Equal(t, "CC", v.Stage)
	assert.Equal(t, "charge CH3 in cast file has no processing-time entry for stage CC", v.Message)
	assert.Equal(t, "instance x: E311: charge CH3 in cast file has no processing-time entry for stage CC", err.Error())
}

func TestLoadModes(t *testing.T) {
	dir := t.TempDir()
	due := `{"CH1":100,"CH9":1}`
	writeInstance(t, dir, "x", validEnv, validCast, due, validPT)

	_, err := Load(dir, "x")
	var rerr *ReferentialIntegrityError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, []string{ErrCodeNoDueDate, ErrCodeNoDueDate, ErrCodeUnknownDueCharge}, rerr.Codes())
	assert.Contains(t, err.Error(), "3 referential integrity violations")

	_, err = Load(dir, "x", WithMode(ModeFailFast))
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, []string{ErrCodeNoDueDate}, rerr.Codes())
}

func TestLoadDerivedRouting(t *testing.T) {
	dir := t.TempDir()
	env := `{"stage_seq":["EAF","LF","CC"],"EAF":["E1"],"LF":["L1"],"CC":["C1"]}`
	cast := `{"cast_seq":["CA1"],"CA1":["CH1","CH2"]}`
	due := `{"CH1":100,"CH2":150}`
	pt := "ch_id,mc_id,pt\nCH1,E1,60\nCH1,L1,20\nCH1,C1,40\nCH2,E1,65\nCH2,C1,45\n"
	writeInstance(t, dir, "x", env, cast, due, pt)

	_, err := Load(dir, "x")
	var rerr *ReferentialIntegrityError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, []string{ErrCodeMissingTime}, rerr.Codes())
	assert.Equal(t, "LF", rerr.Violations[0].Stage)

	inst, err := Load(dir, "x", WithRouting(RoutingDerived))
	require.NoError(t, err)
	assert.Equal(t, []string{"EAF", "CC"}, inst.Route("CH2"))
	assert.Equal(t, []string{"EAF", "CC"}, inst.RequiredStages("CH2"))
	assert.Equal(t, []string{"EAF", "LF", "CC"}, inst.RequiredStages("CH1"))
}

func TestLoadDerivedRoutingRequiresCaster(t *testing.T) {
	dir := t.TempDir()
	env := `{"stage_seq":["EAF","CC"],"EAF":["E1"],"CC":["C1"]}`
	cast := `{"cast_seq":["CA1"],"CA1":["CH1","CH2"]}`
	due := `{"CH1":100,"CH2":150}`
	pt := "ch_id,mc_id,pt\nCH1,E1,60\nCH1,C1,40\nCH2,E1,65\n"
	writeInstance(t, dir, "x", env, cast, due, pt)

	_, err := Load(dir, "x", WithRouting(RoutingDerived))
	var rerr *ReferentialIntegrityError
	require.ErrorAs(t, err, &rerr)
	require.Len(t, rerr.Violations, 1)
	assert.Equal(t, ErrCodeMissingTime, rerr.Violations[0].Code)
	assert.Equal(t, "CC", rerr.Violations[0].Stage)
}

func TestLoadCustomNamingAndHeader(t *testing.T) {
	dir := t.TempDir()
	naming := DefaultNaming
	naming.ProcessingTimeSuffix = "_proc"
	files := naming.FileSet(dir, "x")
	require.NoError(t, os.WriteFile(files.MachineEnv, []byte(validEnv), 0o644))
	require.NoError(t, os.WriteFile(files.Cast, []byte(validCast), 0o644))
	require.NoError(t, os.WriteFile(files.DueDate, []byte(validDue), 0o644))
	pt := "time,charge,machine\n60,CH1,E1\n40,CH1,C1\n65,CH2,E2\n45,CH2,C1\n70,CH3,E1\n50,CH3,C1\n"
	require.NoError(t, os.WriteFile(files.ProcessingTime, []byte(pt), 0o644))

	inst, err := Load(dir, "x", WithNaming(naming), WithHeader(Header{Charge: "charge", Machine: "machine", Time: "time"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"C1": 50}, inst.StageTimes("CH3", "CC"))
}

func TestLoadFilesExplicitPaths(t *testing.T) {
	files := DefaultNaming.FileSet(sampleDir, "scc_02")
	inst, err := LoadFiles("second", files)
	require.NoError(t, err)
	assert.Equal(t, "second", inst.Name)
	assert.Equal(t, []string{"CH1", "CH2"}, inst.Charges())
}
