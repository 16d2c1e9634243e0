// Package output collects program outputs across shots and renders them.
//
// A Report is the output backend of a Run. It resolves recorded results
// through a Reader, normally the quantum backend of the same Run, and
// buffers the records until Commit closes the shot:
//
//	s := sim.New()
//	report := output.NewReport(s)
//	for range shots {
//	    if err := exec.Run(ctx, s, report); err != nil {
//	        report.Discard()
//	        return err
//	    }
//	    report.Commit()
//	}
//	output.Write(os.Stdout, output.FormatText, report.Summary(), true)
//
// Shots are counted by the bit string of their result records.
package output
