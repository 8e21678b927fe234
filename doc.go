/*
go-facesense implements a real-time facial emotion analysis pipeline for
live clinical sessions.  A raw video frame is turned into a per-frame
analysis record by fusing the output of a learned emotion classifier with
hand-engineered geometric micro-expression signals computed from facial
landmarks, and a stream of such records is aggregated into a session level
summary.

The root package defines the model adapter boundary: the landmark extractor
and emotion classifier are consumed as pretrained, swappable black boxes
loaded through the gocv DNN module.  Swapping a model only requires a new
adapter mapping its output into a LandmarkSet or ClassifierResult, the
analysis packages are unaffected.

See example code and usage in the example subdirectory.
*/
package facesense
